package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ssvlabs/validator-keysync/storage/keys"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
		wantErr    bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes", input: "YES\n", want: true},
		{name: "no", input: "n\n", defaultYes: true, want: false},
		{name: "empty takes default yes", input: "\n", defaultYes: true, want: true},
		{name: "empty takes default no", input: "\n", defaultYes: false, want: false},
		{name: "retries on garbage", input: "maybe\ny\n", want: true},
		{name: "answer without newline", input: "y", want: true},
		{name: "closed input", input: "", wantErr: true},
		{name: "garbage then EOF", input: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirm(context.Background(), strings.NewReader(tt.input), &out, "Apply?", tt.defaultYes)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Contains(t, out.String(), "Apply?")
		})
	}
}

func TestConfirmCancelled(t *testing.T) {
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := confirm(ctx, in, io.Discard, "Apply?", true)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("confirm did not return after cancellation")
	}
}

func TestRenderShardSummary(t *testing.T) {
	recipient := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	records := []keys.Record{
		{PublicKey: "0xaa", ValidatorIndex: "0"},
		{PublicKey: "0xbb", ValidatorIndex: "0", FeeRecipient: &recipient},
		{PublicKey: "0xcc", ValidatorIndex: "1"},
	}

	var out bytes.Buffer
	renderShardSummary(&out, records)

	rendered := out.String()
	require.Contains(t, rendered, "Validator index")
	require.Contains(t, rendered, "With fee recipient")
	require.Less(t, strings.Index(rendered, " 0 "), strings.Index(rendered, " 1 "))
}
