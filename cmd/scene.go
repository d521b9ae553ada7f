package cmd

import (
	"fmt"
	"slices"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/spf13/cobra"
)

func newSceneCmd(holder *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Inspect and change the open scene layout",
	}

	cmd.AddCommand(
		newSceneListCmd(holder),
		newSceneOpenCmd(holder),
		newSceneCloseCmd(holder),
		newSceneTouchCmd(holder),
	)

	return cmd
}

func newSceneListCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open scenes in order; modified scenes are marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := holder.get()
			if err != nil {
				return err
			}

			open, err := app.workspace.ListOpen(cmd.Context())
			if err != nil {
				return err
			}
			modified, err := app.workspace.Modified(cmd.Context())
			if err != nil {
				return err
			}

			for _, id := range open {
				marker := " "
				if slices.Contains(modified, id) {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, id)
			}

			return nil
		},
	}
}

func newSceneOpenCmd(holder *appHolder) *cobra.Command {
	var additive bool

	cmd := &cobra.Command{
		Use:   "open <scene>",
		Short: "Open a scene, replacing the layout unless --additive is set",
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

			mode := domain.OpenExclusive
			if additive {
				mode = domain.OpenAdditive
			}

			return app.workspace.Open(cmd.Context(), id, mode)
		},
	}

	cmd.Flags().BoolVar(&additive, "additive", false, "Add the scene to the open layout")

	return cmd
}

func newSceneCloseCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "close <scene>",
		Short: "Close an open scene",
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

			return app.workspace.Close(cmd.Context(), id)
		},
	}
}

func newSceneTouchCmd(holder *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <scene>",
		Short: "Mark an open scene as having unsaved changes",
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

			return app.workspace.MarkModified(cmd.Context(), id)
		},
	}
}
