package status

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/application"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
)

type RenderOptions struct {
	Now time.Time
	// OldAfter flags a pending snapshot captured longer ago than this.
	OldAfter time.Duration
}

// Render lays out status as styled terminal text.
func Render(status application.SessionStatus, opts RenderOptions) string {
	return renderView(status, opts, newStyles())
}

func renderView(status application.SessionStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Scene Session"),
		lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render("state: "), stateStyle(status.State, s).Render(status.State.String())),
		entranceLine(status, s),
	}
	if status.OwnerPID != 0 {
		lines = append(lines, s.running.Render(fmt.Sprintf("run in progress: pid %d", status.OwnerPID)))
	}

	lines = append(lines, s.section.Render(renderSnapshot(status, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func stateStyle(state domain.RunState, s styles) lipgloss.Style {
	switch state {
	case domain.StateRunning:
		return s.running
	case domain.StateTransitioningToRun, domain.StateTransitioningToEdit:
		return s.shifting
	default:
		return s.editing
	}
}

func entranceLine(status application.SessionStatus, s styles) string {
	if status.Entrance.IsZero() {
		return s.label.Render("entrance: ") + s.warning.Render("not set")
	}

	line := s.label.Render("entrance: ") + s.scene.Render(string(status.Entrance))
	if !status.EntranceExists {
		line += " " + s.warning.Render("[missing]")
	}
	return line
}

func renderSnapshot(status application.SessionStatus, opts RenderOptions, s styles) string {
	if len(status.Snapshot) == 0 {
		return s.empty.Render("No pending snapshot.")
	}

	parts := []string{snapshotHeader(status, opts, s)}
	for i, entry := range status.Snapshot {
		parts = append(parts, snapshotEntryLine(i, entry, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func snapshotHeader(status application.SessionStatus, opts RenderOptions, s styles) string {
	header := s.header.Render(fmt.Sprintf("pending snapshot: %d scene(s)", len(status.Snapshot)))
	if status.RunID != "" {
		header += " " + s.detail.Render("run "+status.RunID)
	}
	if status.CapturedAt.IsZero() {
		return header
	}

	ageStyle := lipgloss.NewStyle().Foreground(ageColor(status.CapturedAt, opts.Now, opts.OldAfter))
	header += " " + ageStyle.Render("("+formatCaptured(status.CapturedAt, opts.Now)+")")

	if !opts.Now.IsZero() && opts.OldAfter > 0 && opts.Now.Sub(status.CapturedAt) > opts.OldAfter {
		header += " " + s.warning.Render("[old]")
	}

	return header
}

func snapshotEntryLine(index int, entry application.SnapshotEntryStatus, s styles) string {
	marker := "  "
	sceneStyle := s.scene
	if index == 0 {
		marker = "* "
		sceneStyle = s.primary
	}

	line := s.detail.Render(fmt.Sprintf("%s%d. ", marker, index+1)) + sceneStyle.Render(string(entry.ID))
	if !entry.Exists {
		line += " " + s.warning.Render("[missing]")
	}
	return line
}

func formatCaptured(capturedAt, now time.Time) string {
	if now.IsZero() {
		return "captured " + capturedAt.Format(time.RFC3339)
	}
	if capturedAt.After(now) {
		return "captured just now"
	}

	elapsed := now.Sub(capturedAt)
	switch {
	case elapsed < time.Minute:
		return "captured just now"
	case elapsed < time.Hour:
		return plural("captured %d minute%s ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return plural("captured %d hour%s ago", int(elapsed.Hours()))
	default:
		return plural("captured %d day%s ago", int(math.Floor(elapsed.Hours()/24)))
	}
}

func plural(format string, n int) string {
	suffix := "s"
	if n == 1 {
		suffix = ""
	}
	return fmt.Sprintf(format, n, suffix)
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, 240 faded to 255 bright.
	baseColor := 240.0
	targetColor := 255.0
	colorCode := int(baseColor + (targetColor-baseColor)*normalized)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}

// ageColor fades from bright for a fresh capture to grey at oldAfter.
func ageColor(capturedAt, now time.Time, oldAfter time.Duration) lipgloss.Color {
	if now.IsZero() || oldAfter <= 0 || capturedAt.After(now) {
		return lipgloss.Color("255")
	}

	remaining := oldAfter.Seconds() - now.Sub(capturedAt).Seconds()
	return interpolateColor(remaining, 0, oldAfter.Seconds())
}
