package distribution

import (
	"net/url"
	"os"
	"regexp"

	"github.com/ssvlabs/validator-keysync/errs"
)

// DefaultWeb3SignerURLEnv names the environment variable holding the remote
// signer URL unless the operator picks another one.
const DefaultWeb3SignerURLEnv = "WEB3SIGNER_URL"

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateEnvName checks that name can be used as an environment variable.
func ValidateEnvName(name string) error {
	if !envNamePattern.MatchString(name) {
		return errs.NewConfigurationError("web3signer URL env", "%q is not a valid environment variable name", name)
	}
	return nil
}

// Web3SignerURLFromEnv reads the remote signer URL from the named environment
// variable.
func Web3SignerURLFromEnv(envName string) (string, error) {
	if err := ValidateEnvName(envName); err != nil {
		return "", err
	}

	raw, ok := os.LookupEnv(envName)
	if !ok || raw == "" {
		return "", errs.NewConfigurationError("web3signer URL", "environment variable %s is not set", envName)
	}

	if err := ValidateWeb3SignerURL(raw); err != nil {
		return "", err
	}

	return raw, nil
}

func ValidateWeb3SignerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errs.NewConfigurationError("web3signer URL", "%v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errs.NewConfigurationError("web3signer URL", "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errs.NewConfigurationError("web3signer URL", "missing host")
	}
	return nil
}
