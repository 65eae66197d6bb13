package flags

import (
	"github.com/spf13/cobra"

	"github.com/ssvlabs/validator-keysync/distribution"
	"github.com/ssvlabs/validator-keysync/utils/cliflag"
)

// Flag names.
const (
	OutputDirFlag        = "output-dir"
	Web3SignerURLEnvFlag = "web3signer-url-env"
	DefaultRecipientFlag = "default-recipient"
	TotalValidatorsFlag  = "total-validators"
	ValidatorIndexFlag   = "validator-index"
	ByShardFlag          = "by-shard"

	// UnsetValidatorIndex means the ordinal is taken from the hostname.
	UnsetValidatorIndex = -1
)

// AddOutputDirFlag adds the output directory flag to the command
func AddOutputDirFlag(c *cobra.Command) {
	cliflag.AddPersistentStringFlag(c, OutputDirFlag, "", "The folder where validator keys will be saved", true)
}

// GetOutputDirFlagValue gets the output directory flag from the command
func GetOutputDirFlagValue(c *cobra.Command) (string, error) {
	return c.Flags().GetString(OutputDirFlag)
}

// AddWeb3SignerURLEnvFlag adds the web3signer URL variable name flag to the command
func AddWeb3SignerURLEnvFlag(c *cobra.Command) {
	cliflag.AddPersistentStringFlag(c, Web3SignerURLEnvFlag, distribution.DefaultWeb3SignerURLEnv, "The environment variable with web3signer url", false)
}

// GetWeb3SignerURLEnvFlagValue gets the web3signer URL variable name flag from the command
func GetWeb3SignerURLEnvFlagValue(c *cobra.Command) (string, error) {
	return c.Flags().GetString(Web3SignerURLEnvFlag)
}

// AddDefaultRecipientFlag adds the default fee recipient flag to the command
func AddDefaultRecipientFlag(c *cobra.Command) {
	cliflag.AddPersistentStringFlag(c, DefaultRecipientFlag, "", "The default fee recipient starting with 0x", true)
}

// GetDefaultRecipientFlagValue gets the default fee recipient flag from the command
func GetDefaultRecipientFlagValue(c *cobra.Command) (string, error) {
	return c.Flags().GetString(DefaultRecipientFlag)
}

// AddTotalValidatorsFlag adds the replica count flag to the command
func AddTotalValidatorsFlag(c *cobra.Command) {
	cliflag.AddPersistentIntFlag(c, TotalValidatorsFlag, 0, "The total number of validators connected to the web3signer", true)
}

// GetTotalValidatorsFlagValue gets the replica count flag from the command
func GetTotalValidatorsFlagValue(c *cobra.Command) (int, error) {
	return c.Flags().GetInt(TotalValidatorsFlag)
}

// AddValidatorIndexFlag adds the replica ordinal flag to the command
func AddValidatorIndexFlag(c *cobra.Command) {
	cliflag.AddPersistentIntFlag(c, ValidatorIndexFlag, UnsetValidatorIndex, "The ordinal of this validator, taken from the hostname when not set", false)
}

// GetValidatorIndexFlagValue gets the replica ordinal flag from the command
func GetValidatorIndexFlagValue(c *cobra.Command) (int, error) {
	return c.Flags().GetInt(ValidatorIndexFlag)
}

// AddByShardFlag adds the shard mode flag to the command
func AddByShardFlag(c *cobra.Command) {
	cliflag.AddPersistentBoolFlag(c, ByShardFlag, false, "Serve the keys stored for this validator index instead of a computed range", false)
}

// GetByShardFlagValue gets the shard mode flag from the command
func GetByShardFlagValue(c *cobra.Command) (bool, error) {
	return c.Flags().GetBool(ByShardFlag)
}
