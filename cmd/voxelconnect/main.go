package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voxelconnect/pkg/config"
	"voxelconnect/pkg/logging"
)

var (
	flagConfig  string
	flagDataDir string
	cfg         *config.Config
)

func main() {
	err := rootCmd.Execute()
	logging.Shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "voxelconnect",
	Short:         "Build connectivity matrices from tracer experiments",
	Long:          "voxelconnect reads structure masks and projection densities from a data directory and builds the experiment × structure matrices, and optionally the graph Laplacians, used to fit a connectivity model.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadConfig(flagConfig); err != nil {
			return err
		}
		return cfg.SetupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "voxelconnect.yaml", "configuration file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", ".", "directory holding the connectivity database")

	rootCmd.AddCommand(regionCmd)
	rootCmd.AddCommand(voxelCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(initConfigCmd)
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a configuration file with default values",
	Args:  cobra.MaximumNArgs(1),
	// The file does not exist yet; skip loading it.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.CreateDefaultConfigFile(path); err != nil {
			return err
		}
		fmt.Printf("Default configuration written to: %s\n", path)
		return nil
	},
}
