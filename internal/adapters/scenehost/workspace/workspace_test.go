package workspace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectRoot = "/project"

func newTestWorkspace(t *testing.T, scenes ...string) (*Workspace, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, scene := range scenes {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(projectRoot, filepath.FromSlash(scene)), []byte("scene"), 0o644))
	}
	return New(fs, projectRoot, filepath.Join(projectRoot, ".sst", "workspace.toml")), fs
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	ws, _ := newTestWorkspace(t)
	testCases := []struct {
		name    string
		raw     string
		want    domain.SceneID
		wantErr bool
	}{
		{name: "relative", raw: "Scenes/Main.scene", want: "Scenes/Main.scene"},
		{name: "backslashes", raw: `Scenes\Levels\One.scene`, want: "Scenes/Levels/One.scene"},
		{name: "dot segments", raw: "./Scenes/../Scenes/Main.scene", want: "Scenes/Main.scene"},
		{name: "absolute inside project", raw: "/project/Scenes/Main.scene", want: "Scenes/Main.scene"},
		{name: "whitespace", raw: "  Scenes/Main.scene ", want: "Scenes/Main.scene"},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "escapes project", raw: "../outside.scene", wantErr: true},
		{name: "absolute outside project", raw: "/elsewhere/Main.scene", wantErr: true},
		{name: "root", raw: ".", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ws.Normalize(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidSceneID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	ws, fs := newTestWorkspace(t, "Scenes/Main.scene")
	require.NoError(t, fs.MkdirAll(filepath.Join(projectRoot, "Scenes", "Folder.scene"), 0o755))
	ctx := context.Background()

	assert.True(t, ws.Exists(ctx, "Scenes/Main.scene"))
	assert.False(t, ws.Exists(ctx, "Scenes/Missing.scene"))
	assert.False(t, ws.Exists(ctx, "Scenes/Folder.scene"))
	assert.False(t, ws.Exists(ctx, ""))
	assert.False(t, ws.Exists(ctx, `Scenes\Main.scene`))
	assert.False(t, ws.Exists(ctx, "../project/Scenes/Main.scene"))
}

func TestOpenExclusiveAndAdditive(t *testing.T) {
	t.Parallel()

	ws, _ := newTestWorkspace(t, "Main.scene", "Lobby.scene", "Arena.scene")
	ctx := context.Background()

	open, err := ws.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	require.NoError(t, ws.Open(ctx, "Lobby.scene", domain.OpenExclusive))
	require.NoError(t, ws.Open(ctx, "Arena.scene", domain.OpenAdditive))
	require.NoError(t, ws.Open(ctx, "Lobby.scene", domain.OpenAdditive))

	open, err = ws.ListOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SceneID{"Lobby.scene", "Arena.scene"}, open)

	require.NoError(t, ws.Open(ctx, "Main.scene", domain.OpenExclusive))
	open, err = ws.ListOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SceneID{"Main.scene"}, open)
}

func TestOpenMissingSceneFails(t *testing.T) {
	t.Parallel()

	ws, _ := newTestWorkspace(t, "Main.scene")
	ctx := context.Background()
	require.NoError(t, ws.Open(ctx, "Main.scene", domain.OpenExclusive))

	err := ws.Open(ctx, "Gone.scene", domain.OpenExclusive)
	require.ErrorIs(t, err, domain.ErrSceneNotFound)

	open, err := ws.ListOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SceneID{"Main.scene"}, open)
}

func TestStatePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	ws, fs := newTestWorkspace(t, "Main.scene", "Lobby.scene")
	ctx := context.Background()
	require.NoError(t, ws.Open(ctx, "Main.scene", domain.OpenExclusive))
	require.NoError(t, ws.Open(ctx, "Lobby.scene", domain.OpenAdditive))

	reopened := New(fs, projectRoot, filepath.Join(projectRoot, ".sst", "workspace.toml"))
	open, err := reopened.ListOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SceneID{"Main.scene", "Lobby.scene"}, open)

	info, err := fs.Stat(filepath.Join(projectRoot, ".sst", "workspace.toml"))
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())
}

func TestCloseAndModifiedTracking(t *testing.T) {
	t.Parallel()

	ws, _ := newTestWorkspace(t, "Main.scene", "Lobby.scene")
	ctx := context.Background()
	require.NoError(t, ws.Open(ctx, "Main.scene", domain.OpenExclusive))
	require.NoError(t, ws.Open(ctx, "Lobby.scene", domain.OpenAdditive))

	require.NoError(t, ws.MarkModified(ctx, "Main.scene"))
	require.NoError(t, ws.MarkModified(ctx, "Lobby.scene"))
	require.NoError(t, ws.MarkModified(ctx, "Lobby.scene"))

	modified, err := ws.Modified(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SceneID{"Main.scene", "Lobby.scene"}, modified)

	require.NoError(t, ws.Close(ctx, "Lobby.scene"))
	modified, err = ws.Modified(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SceneID{"Main.scene"}, modified)

	require.NoError(t, ws.SaveAll(ctx))
	modified, err = ws.Modified(ctx)
	require.NoError(t, err)
	assert.Empty(t, modified)

	err = ws.Close(ctx, "Lobby.scene")
	require.Error(t, err)
	assert.ErrorContains(t, err, "scene is not open")

	err = ws.MarkModified(ctx, "Lobby.scene")
	require.Error(t, err)
	assert.ErrorContains(t, err, "scene is not open")
}

func TestExclusiveOpenDropsModifiedFlagsOfClosedScenes(t *testing.T) {
	t.Parallel()

	ws, _ := newTestWorkspace(t, "Main.scene", "Lobby.scene")
	ctx := context.Background()
	require.NoError(t, ws.Open(ctx, "Lobby.scene", domain.OpenExclusive))
	require.NoError(t, ws.MarkModified(ctx, "Lobby.scene"))

	require.NoError(t, ws.Open(ctx, "Main.scene", domain.OpenExclusive))

	modified, err := ws.Modified(ctx)
	require.NoError(t, err)
	assert.Empty(t, modified)
}

func TestReadStateRejectsFutureVersion(t *testing.T) {
	t.Parallel()

	ws, fs := newTestWorkspace(t)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(projectRoot, ".sst", "workspace.toml"), []byte("version = 7\nopen = []\n"), 0o600))

	_, err := ws.ListOpen(context.Background())
	require.ErrorIs(t, err, domain.ErrUnsupportedSchema)
}
