package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sablier-labs/v2-core/configs"
	"github.com/sablier-labs/v2-core/internal/deploy"
	"github.com/sablier-labs/v2-core/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName   = "deploy-multi-chain"
	envPrefix = "DEPLOYER"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               appName,
		Short:             "CLI for deploying the protocol to several chains with forge",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	rootCmd.PersistentFlags().String("config", "", "path to a config file overriding the embedded defaults")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(deploy.CMD)
	rootCmd.AddCommand(deploy.ChainsCMD)

	return rootCmd
}

func loadConfig(cmd *cobra.Command, args []string) error {
	logger.Initialize(slog.LevelInfo)

	// deploy parses its own tokens, so root flags given to it are applied here.
	if cmd.DisableFlagParsing {
		if _, err := deploy.SplitRootFlags(cmd, args); err != nil {
			return err
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := configs.ReadDefaults(viper.GetViper()); err != nil {
		slog.With("err", err.Error()).Error("could not load embedded defaults")
		return err
	}

	if err := mergeConfigFile(); err != nil {
		return err
	}

	if err := viper.Unmarshal(&configs.Values); err != nil {
		const errMsg = "unable to decode application config"
		slog.With("err", err.Error()).Error(errMsg)
		return errors.Join(err, errors.New(errMsg))
	}

	logger.InitializeWith(os.Stderr, logger.ParseLevel(configs.Values.LogLevel), configs.Values.LogFormat)
	slog.With("config", configs.Values).Debug("configuration loaded")

	return nil
}

func mergeConfigFile() error {
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if execPath, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(execPath))
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
	}

	// Defaults are already loaded, a missing file only means no overrides.
	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("no config file found, using embedded defaults")
			return nil
		}
		const errMsg = "error reading config file"
		slog.With("err", err.Error()).Error(errMsg)
		return errors.Join(err, errors.New(errMsg))
	}

	slog.With("config_file", viper.ConfigFileUsed()).Debug("config file merged")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		os.Exit(1)
	}
}
