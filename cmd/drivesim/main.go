package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/OCAP2/drivesim/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// module defs - CurrentVersion and BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:           "drivesim",
		Short:         "Headless driving scene simulation and recorder",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd, configDir)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory holding "+config.FileName)
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64("seed", 0, "world and weather seed")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(worldgenCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// loadConfig reads the config file when there is one and lets set flags
// override it.
func loadConfig(cmd *cobra.Command, dir string) error {
	if err := config.Load(dir); err != nil && fileExists(filepath.Join(dir, config.FileName)) {
		fmt.Fprintf(os.Stderr, "Failed to load config, using defaults: %v\n", err)
	}

	flags := map[string]string{
		"log-level": "logLevel",
		"seed":      "sim.seed",
	}
	for flag, key := range flags {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and build date",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "drivesim %s (built %s)\n", CurrentVersion, BuildDate)
		},
	}
}
