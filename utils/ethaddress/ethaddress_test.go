package ethaddress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssvlabs/validator-keysync/errs"
)

func TestParse(t *testing.T) {
	const checksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"checksummed", checksummed, true},
		{"lowercase", strings.ToLower(checksummed), true},
		{"uppercase body", "0x" + strings.ToUpper(checksummed[2:]), true},
		{"bad checksum", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"no prefix", checksummed[2:], false},
		{"too short", "0x1234", false},
		{"not hex", "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := Parse(tt.input)
			if !tt.valid {
				require.Error(t, err)
				require.True(t, errs.IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, checksummed, addr.Hex())
		})
	}
}
