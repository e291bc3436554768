// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/namesdb/namesdb/internal/config"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "namesdb",
		Short: "namesdb keeps a list of names in an embedded SQLite database",
		Long: `namesdb keeps a list of names in an embedded SQLite database file.
Names can be added and deleted in the web interface or on the command line,
and the database file can be exported and replaced by an imported one.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Directory of the main.toml configuration")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// readConfig loads the configuration for a command.
func readConfig(_ *cobra.Command, _ []string) error {
	var err error

	cfg, err = config.ReadConfig(configPath)

	return err //nolint:wrapcheck
}
