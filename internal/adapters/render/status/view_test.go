package status

import (
	"testing"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/application"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderEditingWithoutSnapshot(t *testing.T) {
	output := Render(application.SessionStatus{
		State:          domain.StateEditing,
		Entrance:       "Scenes/Main.scene",
		EntranceExists: true,
	}, RenderOptions{})

	assert.Contains(t, output, "Scene Session")
	assert.Contains(t, output, "state: editing")
	assert.Contains(t, output, "entrance: Scenes/Main.scene")
	assert.Contains(t, output, "No pending snapshot.")
	assert.NotContains(t, output, "[missing]")
	assert.NotContains(t, output, "run in progress")
}

func TestRenderPendingSnapshot(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	output := Render(application.SessionStatus{
		State:          domain.StateRunning,
		Entrance:       "Scenes/Main.scene",
		EntranceExists: true,
		Snapshot: []application.SnapshotEntryStatus{
			{ID: "Scenes/Lobby.scene", Exists: true},
			{ID: "Scenes/Arena.scene", Exists: false},
		},
		RunID:      "run-1",
		CapturedAt: now.Add(-3 * time.Hour),
	}, RenderOptions{Now: now, OldAfter: 24 * time.Hour})

	assert.Contains(t, output, "state: running")
	assert.Contains(t, output, "pending snapshot: 2 scene(s)")
	assert.Contains(t, output, "run run-1")
	assert.Contains(t, output, "captured 3 hours ago")
	assert.Contains(t, output, "* 1. Scenes/Lobby.scene")
	assert.Contains(t, output, "2. Scenes/Arena.scene [missing]")
	assert.NotContains(t, output, "[old]")
}

func TestRenderMarksOldSnapshot(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	output := Render(application.SessionStatus{
		Entrance:       "Scenes/Main.scene",
		EntranceExists: true,
		Snapshot:       []application.SnapshotEntryStatus{{ID: "Scenes/Main.scene", Exists: true}},
		CapturedAt:     now.Add(-50 * time.Hour),
	}, RenderOptions{Now: now, OldAfter: 24 * time.Hour})

	assert.Contains(t, output, "captured 2 days ago")
	assert.Contains(t, output, "[old]")
}

func TestRenderMissingEntrance(t *testing.T) {
	output := Render(application.SessionStatus{
		Entrance: "Scenes/Gone.scene",
	}, RenderOptions{})

	assert.Contains(t, output, "entrance: Scenes/Gone.scene [missing]")
}

func TestRenderUnsetEntrance(t *testing.T) {
	output := Render(application.SessionStatus{}, RenderOptions{})

	assert.Contains(t, output, "entrance: not set")
}

func TestRenderWithoutNowUsesAbsoluteCaptureTime(t *testing.T) {
	capturedAt := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	output := Render(application.SessionStatus{
		Entrance:       "Main.scene",
		EntranceExists: true,
		Snapshot:       []application.SnapshotEntryStatus{{ID: "Main.scene", Exists: true}},
		CapturedAt:     capturedAt,
	}, RenderOptions{})

	assert.Contains(t, output, "captured 2026-10-18T09:30:00Z")
	assert.NotContains(t, output, "[old]")
}

func TestFormatCaptured(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "captured just now", formatCaptured(now.Add(-20*time.Second), now))
	assert.Equal(t, "captured just now", formatCaptured(now.Add(time.Minute), now))
	assert.Equal(t, "captured 1 minute ago", formatCaptured(now.Add(-90*time.Second), now))
	assert.Equal(t, "captured 1 hour ago", formatCaptured(now.Add(-time.Hour), now))
	assert.Equal(t, "captured 1 day ago", formatCaptured(now.Add(-30*time.Hour), now))
}

func TestAgeColorFades(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "255", string(ageColor(now, now, time.Hour)))
	assert.Equal(t, "240", string(ageColor(now.Add(-2*time.Hour), now, time.Hour)))
	assert.Equal(t, "255", string(ageColor(now.Add(-2*time.Hour), time.Time{}, time.Hour)))
}

func TestRenderShowsLiveRunOwner(t *testing.T) {
	output := Render(application.SessionStatus{
		Entrance:       "Main.scene",
		EntranceExists: true,
		OwnerPID:       4242,
	}, RenderOptions{})

	assert.Contains(t, output, "run in progress: pid 4242")
}
