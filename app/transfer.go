package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/namesdb/namesdb/internal/db/store"
	"github.com/namesdb/namesdb/internal/diag"
	"github.com/namesdb/namesdb/internal/names"
	"github.com/namesdb/namesdb/internal/transfer"
)

func init() { //nolint: gochecknoinits
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Write the database file into this directory")
	exportCmd.Flags().BoolVar(&exportShare, "share", false, "Print the path of the database file instead of copying it")
	exportCmd.MarkFlagsMutuallyExclusive("dir", "share")

	rootCmd.AddCommand(importCmd, exportCmd)
}

var (
	exportDir   string
	exportShare bool

	importCmd = &cobra.Command{
		Use:     "import <file>",
		Short:   "Replace the database with the given database file",
		Args:    cobra.ExactArgs(1),
		PreRunE: readConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw := newGateway()

			return withNames(cmd, func(ctx context.Context, ctl *names.Controller) error {
				err := ctl.Reconnect(ctx, func(current *store.Store) (*store.Store, error) {
					return gw.Import(ctx, current, transfer.FilePicker{Path: args[0]})
				})
				if err != nil {
					return err //nolint:wrapcheck
				}

				printNames(cmd.OutOrStdout(), ctl)

				return nil
			})
		},
	}

	exportCmd = &cobra.Command{
		Use:     "export",
		Short:   "Export the database file",
		Args:    cobra.NoArgs,
		PreRunE: readConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw := newGateway()

			var exporter transfer.Exporter

			switch {
			case exportShare:
				exporter = transfer.ShareExporter{Sharer: transfer.SharerFunc(func(_ context.Context, src transfer.Source) error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), src.Path)

					return err //nolint:wrapcheck
				})}
			default:
				dir := exportDir
				if dir == "" {
					dir = cfg.Export.Directory
				}

				// no directory is a refused grant, reported by the gateway
				exporter = transfer.DirectoryExporter{Permissions: transfer.StaticDirectory{Dir: dir}}
			}

			return withNames(cmd, func(ctx context.Context, ctl *names.Controller) error {
				target, err := gw.Export(ctx, ctl.Store(), exporter)
				if err != nil {
					return err //nolint:wrapcheck
				}

				if !exportShare {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), target)
				}

				return nil
			})
		},
	}
)

func newGateway() *transfer.Gateway {
	return transfer.New(
		transfer.WithReporter(diag.LogReporter{}),
		transfer.WithFileName(cfg.Export.FileName),
	)
}
