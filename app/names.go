package app

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/namesdb/namesdb/internal/daemon"
	"github.com/namesdb/namesdb/internal/diag"
	"github.com/namesdb/namesdb/internal/logger"
	"github.com/namesdb/namesdb/internal/names"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(listCmd, addCmd, deleteCmd)
}

var (
	listCmd = &cobra.Command{
		Use:     "list",
		Short:   "Print all names as id and name",
		Args:    cobra.NoArgs,
		PreRunE: readConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withNames(cmd, func(ctx context.Context, ctl *names.Controller) error {
				printNames(cmd.OutOrStdout(), ctl)

				return nil
			})
		},
	}

	addCmd = &cobra.Command{
		Use:     "add <name>",
		Short:   "Add a name",
		Args:    cobra.ExactArgs(1),
		PreRunE: readConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNames(cmd, func(ctx context.Context, ctl *names.Controller) error {
				n, err := ctl.AddName(ctx, args[0])
				if err != nil {
					return err //nolint:wrapcheck
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", n.ID, n.Name)

				return nil
			})
		},
	}

	deleteCmd = &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete the name with the given id",
		Args:    cobra.ExactArgs(1),
		PreRunE: readConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid id %q", args[0])
			}

			return withNames(cmd, func(ctx context.Context, ctl *names.Controller) error {
				return ctl.DeleteName(ctx, id) //nolint:wrapcheck
			})
		},
	}
)

// withNames opens the configured database for the duration of fn.
// Alerts go to the command's stderr, reported errors to the log.
func withNames(cmd *cobra.Command, fn func(ctx context.Context, ctl *names.Controller) error) error {
	if err := logger.Init(cfg.Log); err != nil {
		return errors.Wrap(err, "failed to init logger")
	}

	alerter := names.AlerterFunc(func(title, message string) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", title, message)
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctl, err := daemon.OpenNames(ctx, &cfg, diag.LogReporter{}, alerter)
	if err != nil {
		return err //nolint:wrapcheck
	}

	defer func() { _ = ctl.Close() }()

	return fn(ctx, ctl)
}

func printNames(w io.Writer, ctl *names.Controller) {
	for _, n := range ctl.Names() {
		_, _ = fmt.Fprintf(w, "%d\t%s\n", n.ID, n.Name)
	}
}
