package cmd

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/application"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreProgressModelShowsShortRunID(t *testing.T) {
	model := newRestoreProgressModel("3f0c9a1e-1111-2222-3333-444455556666", nil)

	assert.Contains(t, model.View(), "Restoring editing scenes from run 3f0c9a1e...")
	assert.Equal(t, "run-1", shortRunID("run-1"))
}

func TestRestoreProgressModelKeepsReportAndQuits(t *testing.T) {
	model := newRestoreProgressModel("", nil)
	report := application.RestoreReport{RunID: "run-1", Opened: []domain.SceneID{"Main.scene"}}

	updated, cmd := model.Update(restoreFinishedMsg{report: report})
	require.NotNil(t, cmd)

	finished := updated.(restoreProgressModel)
	assert.True(t, finished.finished)
	assert.Equal(t, report, finished.report)
	assert.Empty(t, finished.View())

	_, tick := finished.Update(spinner.TickMsg{})
	assert.Nil(t, tick)
}
