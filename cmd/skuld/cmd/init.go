/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/skulddb/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a SkuldDB data directory and config file",
	Long: `Initialize a SkuldDB data directory and write a config file with
default settings.

Examples:
	  skuld init --config=./skuld.yaml --data-dir=./data
	  skuld init --force`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")

		cfg := config.DefaultConfig()
		if dataDir != "" {
			cfg.Storage.Path = dataDir
		}

		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", configPath)
			return
		}

		if err := os.MkdirAll(cfg.Storage.Path, 0750); err != nil {
			cmd.Printf("Error creating data directory: %v\n", err)
			os.Exit(1)
		}

		if err := config.SaveConfig(cfg, configPath); err != nil {
			cmd.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}

		cmd.Printf("Initialized SkuldDB\n")
		cmd.Printf("Config file: %s\n", configPath)
		cmd.Printf("Data directory: %s\n", cfg.Storage.Path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}
