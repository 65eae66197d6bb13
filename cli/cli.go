package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssvlabs/validator-keysync/cli/config"
	"github.com/ssvlabs/validator-keysync/logging"
)

// RootCmd represents the root command of the keysync CLI
var RootCmd = &cobra.Command{
	Use:          "keysync",
	Short:        "keysync",
	Long:         `keysync loads validator keystores into a shared database and distributes them across web3signer-backed validator replicas.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute(appName, version string) {
	RootCmd.Short = appName
	RootCmd.Version = version

	// A second signal terminates the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	context.AfterFunc(ctx, stop)

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal("failed to execute root command: ", err)
	}
}

// setupGlobal loads cfg and installs the global logger described by it.
func setupGlobal(cfg interface{}, global *config.GlobalConfig, args *config.Args) (*zap.Logger, error) {
	if err := config.Load(cfg, args); err != nil {
		return nil, err
	}

	if err := logging.SetGlobalLogger(global.LogLevel, global.LogLevelFormat, global.LogFormat, global.LogFilePath); err != nil {
		return nil, fmt.Errorf("logging.SetGlobalLogger: %w", err)
	}

	return zap.L(), nil
}

// applyFlag copies a flag value into dst when the flag was set explicitly or
// dst was left empty by the configuration file and environment.
func applyFlag[T comparable](cmd *cobra.Command, flag string, get func(*cobra.Command) (T, error), dst *T) error {
	v, err := get(cmd)
	if err != nil {
		return errors.Wrapf(err, "could not read --%s", flag)
	}
	var zero T
	if cmd.Flags().Changed(flag) || *dst == zero {
		*dst = v
	}
	return nil
}
