package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssvlabs/validator-keysync/cli/config"
	"github.com/ssvlabs/validator-keysync/cli/flags"
	"github.com/ssvlabs/validator-keysync/errs"
	"github.com/ssvlabs/validator-keysync/keystore"
	"github.com/ssvlabs/validator-keysync/logging"
	"github.com/ssvlabs/validator-keysync/logging/fields"
	"github.com/ssvlabs/validator-keysync/sharding"
	"github.com/ssvlabs/validator-keysync/storage/keys"
	"github.com/ssvlabs/validator-keysync/utils/aesencryption"
)

type syncDBConfig struct {
	config.GlobalConfig `yaml:"global"`

	DB                keys.Options `yaml:"db"`
	ValidatorCapacity int          `yaml:"ValidatorCapacity" env:"VALIDATOR_CAPACITY" env-default:"100" env-description:"Keys count per validator"`
}

type syncDBParams struct {
	privateKeysDir   string
	passwordFile     string
	passwordFileName string
	noConfirm        bool
	allowEmpty       bool
}

var (
	syncDBCfg  syncDBConfig
	syncDBArgs config.Args
)

// syncDBCmd decrypts local keystores and replaces the keys in the database
var syncDBCmd = &cobra.Command{
	Use:   "sync-db",
	Short: "Synchronizes validator keystores in the database for web3signer",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := setupGlobal(&syncDBCfg, &syncDBCfg.GlobalConfig, &syncDBArgs)
		if err != nil {
			return err
		}
		defer logging.CapturePanic(logger)

		logger = logger.Named(logging.NameSyncDB).With(fields.RunID(uuid.New()))

		params, err := readSyncDBFlags(cmd, &syncDBCfg)
		if err != nil {
			return err
		}

		return runSyncDB(cmd, logger, &syncDBCfg, params)
	},
}

func readSyncDBFlags(cmd *cobra.Command, cfg *syncDBConfig) (*syncDBParams, error) {
	if err := applyFlag(cmd, flags.DBURLFlag, flags.GetDBURLFlagValue, &cfg.DB.URL); err != nil {
		return nil, err
	}
	if err := applyFlag(cmd, flags.TableNameFlag, flags.GetTableNameFlagValue, &cfg.DB.TableName); err != nil {
		return nil, err
	}
	if err := applyFlag(cmd, flags.ValidatorCapacityFlag, flags.GetValidatorCapacityFlagValue, &cfg.ValidatorCapacity); err != nil {
		return nil, err
	}

	if cfg.DB.URL == "" {
		dbURL, err := promptDBURL(cmd.Context(), os.Stdin, cmd.OutOrStdout())
		if err != nil {
			return nil, err
		}
		cfg.DB.URL = dbURL
	}
	if err := keys.ValidateURL(cfg.DB.URL); err != nil {
		return nil, err
	}
	if cfg.ValidatorCapacity < 1 {
		return nil, errs.NewConfigurationError("validator capacity", "must be at least 1, got %d", cfg.ValidatorCapacity)
	}

	params := &syncDBParams{}
	var err error
	if params.privateKeysDir, err = flags.GetPrivateKeysDirFlagValue(cmd); err != nil {
		return nil, errors.Wrap(err, "could not read private keys dir flag")
	}
	if params.passwordFile, err = flags.GetPasswordFileFlagValue(cmd); err != nil {
		return nil, errors.Wrap(err, "could not read password file flag")
	}
	if params.passwordFileName, err = flags.GetPasswordFileNameFlagValue(cmd); err != nil {
		return nil, errors.Wrap(err, "could not read password file name flag")
	}
	if params.noConfirm, err = flags.GetNoConfirmFlagValue(cmd); err != nil {
		return nil, errors.Wrap(err, "could not read no confirm flag")
	}
	if params.allowEmpty, err = flags.GetAllowEmptyFlagValue(cmd); err != nil {
		return nil, errors.Wrap(err, "could not read allow empty flag")
	}

	params.privateKeysDir, err = expandHome(params.privateKeysDir)
	if err != nil {
		return nil, err
	}

	return params, nil
}

func runSyncDB(cmd *cobra.Command, logger *zap.Logger, cfg *syncDBConfig, params *syncDBParams) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	start := time.Now()

	// Connect first so that a bad connection string fails before any password prompt.
	store, err := keys.Open(ctx, logger, cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	ingestor := keystore.NewIngestor(logger, passwordProvider(params))

	fmt.Fprintln(out, "Decrypting private keys...")
	keySet, err := ingestor.Ingest(ctx, params.privateKeysDir)
	if err != nil {
		return err
	}
	if err := checkKeySet(logger, keySet, params); err != nil {
		return err
	}

	// The cipher key lives for this run only and is reported to the operator
	// at the end.
	cipher := aesencryption.New()
	records, err := sharding.Process(logger, keySet, cfg.ValidatorCapacity, cipher)
	if err != nil {
		return err
	}

	renderShardSummary(out, records)

	if !params.noConfirm {
		ok, err := confirm(ctx, cmd.InOrStdin(), out, fmt.Sprintf("Found %d key pairs, apply changes to the database?", keySet.Len()), true)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("aborted")
		}
	}

	if err := store.ReplaceAll(ctx, records); err != nil {
		return err
	}

	cipherKey, err := cipher.KeyString()
	if err != nil {
		return err
	}

	replicas := sharding.RecommendedReplicas(keySet.Len(), cfg.ValidatorCapacity)
	logger.Info("database synced",
		fields.Count(keySet.Len()),
		fields.RecommendedReplicas(replicas),
		fields.Table(store.TableName()),
		fields.Took(time.Since(start)))

	fmt.Fprintf(out, "The database contains %d validator keys.\n", keySet.Len())
	fmt.Fprintf(out, "Please upgrade the 'validators' helm chart with 'validatorsCount' set to %d\n", replicas)
	fmt.Fprintf(out, "Set 'DECRYPTION_KEY' env to '%s'\n", cipherKey)

	return nil
}

// checkKeySet refuses to replace the stored keys with nothing unless the
// operator asked for it.
func checkKeySet(logger *zap.Logger, keySet *keystore.KeySet, params *syncDBParams) error {
	if keySet.Len() > 0 {
		return nil
	}
	if !params.allowEmpty {
		return errs.NewConfigurationError("private keys dir",
			"no keystores found in %s, pass --%s to clear the database", params.privateKeysDir, flags.AllowEmptyFlag)
	}
	logger.Warn("no keystores found, the database will be left without keys", fields.Directory(params.privateKeysDir))
	return nil
}

func passwordProvider(params *syncDBParams) keystore.PasswordProvider {
	if params.passwordFile != "" || params.passwordFileName != "" {
		return keystore.FilePasswordProvider{FileName: params.passwordFileName, Fallback: params.passwordFile}
	}
	return keystore.NewTerminalPasswordProvider()
}

func expandHome(path string) (string, error) {
	if path != "~" && !hasHomePrefix(path) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not expand home directory")
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

func hasHomePrefix(path string) bool {
	return len(path) >= 2 && path[0] == '~' && os.IsPathSeparator(path[1])
}

func init() {
	config.ProcessArgs(&syncDBCfg, &syncDBArgs, syncDBCmd)

	flags.AddDBURLFlag(syncDBCmd)
	flags.AddTableNameFlag(syncDBCmd)
	flags.AddValidatorCapacityFlag(syncDBCmd)
	flags.AddPrivateKeysDirFlag(syncDBCmd)
	flags.AddPasswordFileFlag(syncDBCmd)
	flags.AddPasswordFileNameFlag(syncDBCmd)
	flags.AddNoConfirmFlag(syncDBCmd)
	flags.AddAllowEmptyFlag(syncDBCmd)

	RootCmd.AddCommand(syncDBCmd)
}
