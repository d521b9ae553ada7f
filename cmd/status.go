package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/render/status"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/application"
	"github.com/spf13/cobra"
)

func newStatusCmd(holder *appHolder) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the entrance scene and any pending snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := holder.get()
			if err != nil {
				return err
			}

			status, err := app.controller(nil, nil, nil).Status(cmd.Context())
			if err != nil {
				return err
			}

			return writeStatusOutput(cmd, app, status, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")

	return cmd
}

func writeStatusOutput(cmd *cobra.Command, app *app, status application.SessionStatus, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	rendered := app.statusRenderer(status, statusadapter.RenderOptions{
		Now:      app.clock.Now(),
		OldAfter: snapshotOldAfter,
	})

	_, err := fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
