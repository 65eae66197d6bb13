package ethaddress

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ssvlabs/validator-keysync/errs"
)

// Parse validates a 0x-prefixed execution layer address. All-lowercase and
// all-uppercase inputs carry no checksum and are accepted; mixed-case inputs
// must match their EIP-55 checksum.
func Parse(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") {
		return common.Address{}, errs.NewConfigurationError("address", "%q must start with 0x", s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, errs.NewConfigurationError("address", "%q is not a valid address", s)
	}

	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex() != s {
		return common.Address{}, errs.NewConfigurationError("address", "%q has an invalid checksum, expected %s", s, addr.Hex())
	}

	return addr, nil
}
