package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/application"
)

const shortRunIDLen = 8

type restoreFinishedMsg struct {
	report application.RestoreReport
	err    error
}

// restoreProgressModel drives the session loop until the restoration of one
// run completes, spinning meanwhile.
type restoreProgressModel struct {
	spinner  spinner.Model
	runID    string
	drive    tea.Cmd
	report   application.RestoreReport
	err      error
	finished bool
}

func newRestoreProgressModel(runID string, drive tea.Cmd) restoreProgressModel {
	return restoreProgressModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("214"))),
		),
		runID: runID,
		drive: drive,
	}
}

func (m restoreProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.drive)
}

func (m restoreProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case restoreFinishedMsg:
		m.finished = true
		m.report = msg.report
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m restoreProgressModel) View() string {
	if m.finished {
		return ""
	}

	label := "Restoring editing scenes"
	if m.runID != "" {
		label += " from run " + shortRunID(m.runID)
	}
	return m.spinner.View() + " " + label + "..."
}

func shortRunID(runID string) string {
	if len(runID) <= shortRunIDLen {
		return runID
	}
	return runID[:shortRunIDLen]
}

// waitForRestore runs loop on the program's command goroutine until the
// restoration completes and returns its report.
func waitForRestore(ctx context.Context, output io.Writer, loop *application.Loop, restoration *application.Restoration, runID string) (application.RestoreReport, error) {
	drive := func() tea.Msg {
		if err := loop.RunUntil(ctx, restoration.Done()); err != nil {
			return restoreFinishedMsg{err: err}
		}
		return restoreFinishedMsg{report: restoration.Report()}
	}

	p := tea.NewProgram(
		newRestoreProgressModel(runID, drive),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return application.RestoreReport{}, err
	}

	result, ok := finalModel.(restoreProgressModel)
	if !ok {
		return application.RestoreReport{}, fmt.Errorf("unexpected final progress model type %T", finalModel)
	}

	return result.report, result.err
}
