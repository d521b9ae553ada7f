package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEntranceCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entrance",
		Short: "Show or change the scene every run starts from",
	}

	cmd.AddCommand(
		newEntranceGetCmd(holder),
		newEntranceSetCmd(holder),
	)

	return cmd
}

func newEntranceGetCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the entrance scene",
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

			_, err = fmt.Fprintln(cmd.OutOrStdout(), record.Entrance)
			return err
		},
	}
}

func newEntranceSetCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "set <scene>",
		Short: "Set the entrance scene",
		Long:  "Set the entrance scene. The scene is not required to exist yet; it is checked when a run starts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := holder.get()
			if err != nil {
				return err
			}

			id, err := app.workspace.Normalize(args[0])
			if err != nil {
				return err
			}

			if err := app.controller(nil, nil, nil).SetEntrance(cmd.Context(), id); err != nil {
				return err
			}

			if !app.workspace.Exists(cmd.Context(), id) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s does not exist yet\n", id)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "entrance set to %s\n", id)
			return err
		},
	}
}
