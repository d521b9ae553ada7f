package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/application"
	"github.com/spf13/cobra"
)

func newPlayCmd(holder *appHolder) *cobra.Command {
	var assumeYes bool
	var noSave bool

	cmd := &cobra.Command{
		Use:   "play -- <command> [args...]",
		Short: "Run a command from the entrance scene, then reopen the previous layout",
		Long: "play captures the open scenes, opens the entrance scene alone and runs the command with " +
			"SST_ENTRANCE_SCENE and SST_PROJECT_ROOT set. When the command exits, or on interrupt, the " +
			"captured scenes are reopened in their original order.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("play requires a command after '--'")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if assumeYes && noSave {
				return errors.New("--yes and --no-save are mutually exclusive")
			}

			app, err := holder.get()
			if err != nil {
				return err
			}

			loop := application.NewLoop()
			host := app.newRunHost(args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			controller := app.controller(host, savePrompter{
				workspace: app.workspace,
				assumeYes: assumeYes,
				noSave:    noSave,
				in:        cmd.InOrStdin(),
				out:       cmd.ErrOrStderr(),
			}, loop)

			runCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			if err := controller.Start(runCtx); err != nil {
				return err
			}

			select {
			case <-host.Exited():
			case <-runCtx.Done():
			}

			restoration, err := controller.Stop(cmd.Context())
			if err != nil {
				return err
			}

			report, err := waitForRestore(cmd.Context(), cmd.ErrOrStderr(), loop, restoration, app.cache.Record().RunID)
			if err != nil {
				return err
			}

			if runErr := host.Err(); runErr != nil && runCtx.Err() == nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "run exited: %v\n", runErr)
			}

			return writeRestoreReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), report)
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Save modified scenes without asking")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Play without saving modified scenes")

	return cmd
}
