package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect or discard the layout captured before the last run",
	}

	cmd.AddCommand(
		newSnapshotShowCmd(holder),
		newSnapshotClearCmd(holder),
	)

	return cmd
}

func newSnapshotShowCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the pending snapshot, one scene per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := holder.get()
			if err != nil {
				return err
			}

			record, err := app.cache.Load(cmd.Context())
			if err != nil {
				return err
			}

			if !record.HasSnapshot() {
				_, err = fmt.Fprintln(cmd.ErrOrStderr(), "no pending snapshot")
				return err
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "run %s captured %s\n", record.RunID, record.CapturedAt.Format(time.RFC3339))
			for _, id := range record.Snapshot {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			}

			return nil
		},
	}
}

func newSnapshotClearCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the pending snapshot without reopening it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := holder.get()
			if err != nil {
				return err
			}

			if _, err := app.cache.Load(cmd.Context()); err != nil {
				return err
			}

			return app.cache.ClearSnapshot(cmd.Context())
		},
	}
}
