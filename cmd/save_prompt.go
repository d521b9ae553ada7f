package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/scenehost/workspace"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
)

type saveChoice int

const (
	saveChoicePending saveChoice = iota
	saveChoiceSave
	saveChoiceDiscard
	saveChoiceCancel
)

type savePrompter struct {
	workspace *workspace.Workspace
	assumeYes bool
	noSave    bool
	in        io.Reader
	out       io.Writer
}

var _ ports.SavePrompter = savePrompter{}

func (p savePrompter) SaveModifiedIfUserWants(ctx context.Context) (bool, error) {
	modified, err := p.workspace.Modified(ctx)
	if err != nil {
		return false, err
	}
	if len(modified) == 0 {
		return true, nil
	}

	choice := saveChoiceSave
	switch {
	case p.assumeYes:
	case p.noSave:
		choice = saveChoiceDiscard
	default:
		choice, err = runSavePrompt(ctx, p.in, p.out, modified)
		if err != nil {
			return false, err
		}
	}

	switch choice {
	case saveChoiceSave:
		if err := p.workspace.SaveAll(ctx); err != nil {
			return false, err
		}
		return true, nil
	case saveChoiceDiscard:
		return true, nil
	default:
		return false, nil
	}
}

type savePromptModel struct {
	modified []domain.SceneID
	choice   saveChoice
	question lipgloss.Style
	hint     lipgloss.Style
}

func newSavePromptModel(modified []domain.SceneID) savePromptModel {
	return savePromptModel{
		modified: modified,
		question: lipgloss.NewStyle().Bold(true),
		hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (m savePromptModel) Init() tea.Cmd {
	return nil
}

func (m savePromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch strings.ToLower(key.String()) {
	case "y":
		m.choice = saveChoiceSave
	case "n":
		m.choice = saveChoiceDiscard
	case "esc", "ctrl+c", "q":
		m.choice = saveChoiceCancel
	default:
		return m, nil
	}

	return m, tea.Quit
}

func (m savePromptModel) View() string {
	if m.choice != saveChoicePending {
		return ""
	}

	names := make([]string, 0, len(m.modified))
	for _, id := range m.modified {
		names = append(names, string(id))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.question.Render(fmt.Sprintf("%d scene(s) have unsaved changes: %s", len(m.modified), strings.Join(names, ", "))),
		m.question.Render("Save before playing?"),
		m.hint.Render("[y] save  [n] don't save  [esc] cancel"),
	)
}

func runSavePrompt(ctx context.Context, in io.Reader, out io.Writer, modified []domain.SceneID) (saveChoice, error) {
	p := tea.NewProgram(
		newSavePromptModel(modified),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return saveChoiceCancel, fmt.Errorf("save prompt: %w", err)
	}

	result, ok := finalModel.(savePromptModel)
	if !ok {
		return saveChoiceCancel, fmt.Errorf("unexpected final prompt model type %T", finalModel)
	}
	if result.choice == saveChoicePending {
		return saveChoiceCancel, nil
	}

	return result.choice, nil
}
