package flags

import (
	"github.com/spf13/cobra"

	"github.com/ssvlabs/validator-keysync/utils/cliflag"
)

// Flag names.
const (
	ValidatorCapacityFlag = "validator-capacity"
	PrivateKeysDirFlag    = "private-keys-dir"
	PasswordFileFlag      = "password-file"
	PasswordFileNameFlag  = "password-file-name"
	NoConfirmFlag         = "no-confirm"
	AllowEmptyFlag        = "allow-empty"

	DefaultValidatorCapacity = 100
)

// AddValidatorCapacityFlag adds the keys per replica flag to the command
func AddValidatorCapacityFlag(c *cobra.Command) {
	cliflag.AddPersistentIntFlag(c, ValidatorCapacityFlag, DefaultValidatorCapacity, "Keys count per validator", false)
}

// GetValidatorCapacityFlagValue gets the keys per replica flag from the command
func GetValidatorCapacityFlagValue(c *cobra.Command) (int, error) {
	return c.Flags().GetInt(ValidatorCapacityFlag)
}

// AddPrivateKeysDirFlag adds the keystore directory flag to the command
func AddPrivateKeysDirFlag(c *cobra.Command) {
	cliflag.AddPersistentStringFlag(c, PrivateKeysDirFlag, "", "The folder with keystore-m files", true)
}

// GetPrivateKeysDirFlagValue gets the keystore directory flag from the command
func GetPrivateKeysDirFlagValue(c *cobra.Command) (string, error) {
	return c.Flags().GetString(PrivateKeysDirFlag)
}

// AddPasswordFileFlag adds the shared keystore password file flag to the command
func AddPasswordFileFlag(c *cobra.Command) {
	cliflag.AddPersistentStringFlag(c, PasswordFileFlag, "", "File with the keystore password, used instead of prompting", false)
}

// GetPasswordFileFlagValue gets the shared keystore password file flag from the command
func GetPasswordFileFlagValue(c *cobra.Command) (string, error) {
	return c.Flags().GetString(PasswordFileFlag)
}

// AddPasswordFileNameFlag adds the per-directory password file name flag to the command
func AddPasswordFileNameFlag(c *cobra.Command) {
	cliflag.AddPersistentStringFlag(c, PasswordFileNameFlag, "", "Name of a password file inside each keystore folder, overriding --password-file for that folder", false)
}

// GetPasswordFileNameFlagValue gets the per-directory password file name flag from the command
func GetPasswordFileNameFlagValue(c *cobra.Command) (string, error) {
	return c.Flags().GetString(PasswordFileNameFlag)
}

// AddNoConfirmFlag adds the skip confirmation flag to the command
func AddNoConfirmFlag(c *cobra.Command) {
	cliflag.AddPersistentBoolFlag(c, NoConfirmFlag, false, "Apply changes to the database without asking", false)
}

// GetNoConfirmFlagValue gets the skip confirmation flag from the command
func GetNoConfirmFlagValue(c *cobra.Command) (bool, error) {
	return c.Flags().GetBool(NoConfirmFlag)
}

// AddAllowEmptyFlag adds the flag permitting a sync without any keystores to the command
func AddAllowEmptyFlag(c *cobra.Command) {
	cliflag.AddPersistentBoolFlag(c, AllowEmptyFlag, false, "Replace the database contents even when no keystores are found", false)
}

// GetAllowEmptyFlagValue gets the flag permitting a sync without any keystores from the command
func GetAllowEmptyFlagValue(c *cobra.Command) (bool, error) {
	return c.Flags().GetBool(AllowEmptyFlag)
}
