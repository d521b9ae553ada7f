package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const projectEnvVar = "SST_PROJECT"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var projectDir string
	holder := &appHolder{}

	rootCmd := &cobra.Command{
		Use:           "sst",
		Short:         "Scene session tool (sst): play from an entrance scene and restore your layout",
		Long:          "sst remembers which scenes are open, plays the project from a fixed entrance scene, and reopens the previous layout once the run ends.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsApp(cmd) {
				return nil
			}

			root, err := resolveProjectRoot(projectDir)
			if err != nil {
				return err
			}

			app, err := wireApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			holder.app = app
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return holder.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&projectDir, "project", "", "Project root (default: $"+projectEnvVar+" or the working directory)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newEntranceCmd(holder),
		newPlayCmd(holder),
		newRestoreCmd(holder),
		newStatusCmd(holder),
		newSnapshotCmd(holder),
		newSceneCmd(holder),
	)

	return rootCmd
}

// appHolder hands the lazily wired app to subcommands once flags are parsed.
type appHolder struct {
	app *app
}

func (h *appHolder) get() (*app, error) {
	if h.app == nil {
		return nil, errors.New("application is not wired")
	}
	return h.app, nil
}

func (h *appHolder) close() error {
	if h.app == nil {
		return nil
	}
	err := h.app.close()
	h.app = nil
	return err
}

func needsApp(cmd *cobra.Command) bool {
	return cmd.Name() != "version" && cmd.Runnable()
}

func resolveProjectRoot(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if fromEnv := os.Getenv(projectEnvVar); fromEnv != "" {
		return fromEnv, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	return wd, nil
}
