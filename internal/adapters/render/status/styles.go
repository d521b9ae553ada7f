package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	scene    lipgloss.Style
	primary  lipgloss.Style
	detail   lipgloss.Style
	warning  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
	running  lipgloss.Style
	editing  lipgloss.Style
	shifting lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		scene:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		primary:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
		running:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		editing:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		shifting: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}
