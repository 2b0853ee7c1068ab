/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/skulddb/pkg/config"
	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/metrics"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skuld",
	Short: "SkuldDB - embedded ordered record store",
	Long: `SkuldDB is an embedded ordered key-value record store for todos,
users and sessions. The skuld tool inspects a store's data directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init creates the store; every other command opens it.
		if cmd.Name() == "init" {
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log, err := newLogger(cfg.Logging.Level)
		if err != nil {
			return err
		}

		eng, err := engine.Open(cfg.Storage.Path, log, metrics.Nop{})
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		// Store in command context
		cmd.SetContext(context.WithValue(cmd.Context(), "engine", eng))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		eng, ok := cmd.Context().Value("engine").(*engine.Engine)
		if !ok {
			return nil
		}
		return eng.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "./skuld.yaml", "Config file path")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory, overrides the config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level, overrides the config file")
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Storage.Path = dataDir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
