package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "levelsnap",
		Short:        "Turn photos into validated platformer levels",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (json or yaml); defaults to LS_CONFIG_PATH or ./config/config.*")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(generateCmd(&configPath))
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(fallbackCmd())
	rootCmd.AddCommand(schemaCmd())
	return rootCmd
}
