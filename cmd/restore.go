package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/application"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/spf13/cobra"
)

func newRestoreCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Reopen a snapshot left behind by a run that did not finish cleanly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := holder.get()
			if err != nil {
				return err
			}

			report, err := app.controller(nil, nil, nil).RestorePending(cmd.Context())
			if err != nil {
				return err
			}

			return writeRestoreReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), report)
		},
	}
}

func writeRestoreReport(out, errOut io.Writer, report application.RestoreReport) error {
	if report.RunID == "" && len(report.Opened) == 0 && len(report.Issues) == 0 {
		_, _ = fmt.Fprintln(errOut, "nothing to restore")
		return report.Err
	}

	for _, issue := range report.Issues {
		var entryErr *domain.SnapshotEntryError
		if errors.As(issue, &entryErr) && errors.Is(issue, domain.ErrStaleSnapshotEntry) {
			_, _ = fmt.Fprintf(errOut, "skipped %s: scene no longer exists\n", entryErr.ID)
			continue
		}
		_, _ = fmt.Fprintf(errOut, "skipped: %v\n", issue)
	}

	summary := fmt.Sprintf("restored %d scene(s)", len(report.Opened))
	if stale := report.StaleCount(); stale > 0 {
		summary += fmt.Sprintf(", %d missing", stale)
	}
	_, _ = fmt.Fprintln(out, summary)
	return report.Err
}
