package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
)

type Args struct {
	ConfigPath string
}

type GlobalConfig struct {
	LogLevel       string `yaml:"LogLevel" env:"LOG_LEVEL" env-default:"info" env-description:"Defines logger's log level"`
	LogLevelFormat string `yaml:"LogLevelFormat" env:"LOG_LEVEL_FORMAT" env-default:"capitalColor" env-description:"Defines logger's level format, e.g. capital, capitalColor, lowercase"`
	LogFormat      string `yaml:"LogFormat" env:"LOG_FORMAT" env-default:"console" env-description:"Defines logger's encoding, valid values are 'json' and 'console'"`
	LogFilePath    string `yaml:"LogFilePath" env:"LOG_FILE_PATH" env-description:"Defines a file path to write logs into, logs are only written to stderr when empty"`
}

// ProcessArgs processes and handles CLI arguments
func ProcessArgs(cfg interface{}, a *Args, cmd *cobra.Command) {
	configFlag := "config"
	cmd.PersistentFlags().StringVarP(&a.ConfigPath, configFlag, "c", "", "Path to configuration file")

	envHelp, _ := cleanenv.GetDescription(cfg, nil)
	cmd.SetUsageTemplate(envHelp + "\n" + cmd.UsageTemplate())
}

// Load fills cfg from the configuration file when one is given, and from the
// environment otherwise. Environment variables override file values.
func Load(cfg interface{}, a *Args) error {
	if a.ConfigPath != "" {
		if err := cleanenv.ReadConfig(a.ConfigPath, cfg); err != nil {
			return fmt.Errorf("could not read config: %w", err)
		}
		return nil
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("could not read config from environment: %w", err)
	}
	return nil
}
