package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssvlabs/validator-keysync/cli/config"
	"github.com/ssvlabs/validator-keysync/cli/flags"
	"github.com/ssvlabs/validator-keysync/distribution"
	"github.com/ssvlabs/validator-keysync/logging"
	"github.com/ssvlabs/validator-keysync/logging/fields"
	"github.com/ssvlabs/validator-keysync/storage/keys"
	"github.com/ssvlabs/validator-keysync/utils/ethaddress"
)

type syncValidatorKeysConfig struct {
	config.GlobalConfig `yaml:"global"`

	DB keys.Options `yaml:"db"`
}

var (
	syncValidatorKeysCfg  syncValidatorKeysConfig
	syncValidatorKeysArgs config.Args
)

// syncValidatorKeysCmd is run by the init container of every validator replica
var syncValidatorKeysCmd = &cobra.Command{
	Use:   "sync-validator-keys",
	Short: "Synchronizes validator public keys from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := setupGlobal(&syncValidatorKeysCfg, &syncValidatorKeysCfg.GlobalConfig, &syncValidatorKeysArgs)
		if err != nil {
			return err
		}
		defer logging.CapturePanic(logger)

		logger = logger.Named(logging.NameSyncKeys).With(fields.RunID(uuid.New()))

		coordinatorCfg, err := readSyncValidatorKeysFlags(cmd, &syncValidatorKeysCfg)
		if err != nil {
			return err
		}

		return runSyncValidatorKeys(cmd, logger, &syncValidatorKeysCfg, coordinatorCfg)
	},
}

func readSyncValidatorKeysFlags(cmd *cobra.Command, cfg *syncValidatorKeysConfig) (distribution.Config, error) {
	var coordinatorCfg distribution.Config

	if err := applyFlag(cmd, flags.DBURLFlag, flags.GetDBURLFlagValue, &cfg.DB.URL); err != nil {
		return coordinatorCfg, err
	}
	if err := applyFlag(cmd, flags.TableNameFlag, flags.GetTableNameFlagValue, &cfg.DB.TableName); err != nil {
		return coordinatorCfg, err
	}
	if err := keys.ValidateURL(cfg.DB.URL); err != nil {
		return coordinatorCfg, err
	}

	outputDir, err := flags.GetOutputDirFlagValue(cmd)
	if err != nil {
		return coordinatorCfg, errors.Wrap(err, "could not read output dir flag")
	}
	coordinatorCfg.OutputDir = outputDir

	envName, err := flags.GetWeb3SignerURLEnvFlagValue(cmd)
	if err != nil {
		return coordinatorCfg, errors.Wrap(err, "could not read web3signer url env flag")
	}
	if coordinatorCfg.Web3SignerURL, err = distribution.Web3SignerURLFromEnv(envName); err != nil {
		return coordinatorCfg, err
	}

	rawRecipient, err := flags.GetDefaultRecipientFlagValue(cmd)
	if err != nil {
		return coordinatorCfg, errors.Wrap(err, "could not read default recipient flag")
	}
	if coordinatorCfg.DefaultRecipient, err = ethaddress.Parse(rawRecipient); err != nil {
		return coordinatorCfg, errors.Wrap(err, "default recipient")
	}

	if coordinatorCfg.TotalReplicas, err = flags.GetTotalValidatorsFlagValue(cmd); err != nil {
		return coordinatorCfg, errors.Wrap(err, "could not read total validators flag")
	}

	if coordinatorCfg.ReplicaIndex, err = flags.GetValidatorIndexFlagValue(cmd); err != nil {
		return coordinatorCfg, errors.Wrap(err, "could not read validator index flag")
	}
	if coordinatorCfg.ReplicaIndex == flags.UnsetValidatorIndex {
		// The StatefulSet numbers its pods name-0 to name-(replicas-1).
		if coordinatorCfg.ReplicaIndex, err = distribution.ReplicaIndex(); err != nil {
			return coordinatorCfg, err
		}
	}

	if coordinatorCfg.ByShard, err = flags.GetByShardFlagValue(cmd); err != nil {
		return coordinatorCfg, errors.Wrap(err, "could not read by shard flag")
	}

	return coordinatorCfg, nil
}

func runSyncValidatorKeys(cmd *cobra.Command, logger *zap.Logger, cfg *syncValidatorKeysConfig, coordinatorCfg distribution.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := keys.Open(ctx, logger, cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	coordinator, err := distribution.NewCoordinator(logger, store, coordinatorCfg)
	if err != nil {
		return err
	}

	result, err := coordinator.Sync(ctx)
	if err != nil {
		return err
	}

	if !result.Changed {
		fmt.Fprintln(out, "Keys already synced to the last version.")
		return nil
	}

	fmt.Fprintf(out, "The validator now uses %d public keys.\n", result.KeyCount)
	return nil
}

func init() {
	config.ProcessArgs(&syncValidatorKeysCfg, &syncValidatorKeysArgs, syncValidatorKeysCmd)

	flags.AddDBURLFlag(syncValidatorKeysCmd)
	flags.AddTableNameFlag(syncValidatorKeysCmd)
	flags.AddOutputDirFlag(syncValidatorKeysCmd)
	flags.AddWeb3SignerURLEnvFlag(syncValidatorKeysCmd)
	flags.AddDefaultRecipientFlag(syncValidatorKeysCmd)
	flags.AddTotalValidatorsFlag(syncValidatorKeysCmd)
	flags.AddValidatorIndexFlag(syncValidatorKeysCmd)
	flags.AddByShardFlag(syncValidatorKeysCmd)

	RootCmd.AddCommand(syncValidatorKeysCmd)
}
