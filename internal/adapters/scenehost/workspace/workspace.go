// Package workspace implements the scene host over a project directory. The
// editor state (open and modified scenes) lives in a TOML file next to the
// session cache.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const (
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	tempFilePattern = ".workspace-*.toml.tmp"
)

type Workspace struct {
	fs        afero.Fs
	root      string
	statePath string
	mu        sync.Mutex
}

var _ ports.SceneHost = (*Workspace)(nil)

// New returns a workspace rooted at root whose editor state is kept at statePath.
func New(fs afero.Fs, root, statePath string) *Workspace {
	return &Workspace{fs: fs, root: filepath.Clean(root), statePath: filepath.Clean(statePath)}
}

// Normalize turns a user supplied path into the canonical identifier:
// slash separated, relative to the project root.
func (w *Workspace) Normalize(raw string) (domain.SceneID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", domain.ErrInvalidSceneID)
	}

	if filepath.IsAbs(trimmed) {
		rel, err := filepath.Rel(w.root, filepath.Clean(trimmed))
		if err != nil {
			return "", fmt.Errorf("%w: %q is outside the project", domain.ErrInvalidSceneID, raw)
		}
		trimmed = rel
	}

	cleaned := path.Clean(strings.ReplaceAll(trimmed, `\`, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %q is outside the project", domain.ErrInvalidSceneID, raw)
	}

	return domain.SceneID(cleaned), nil
}

func (w *Workspace) Exists(_ context.Context, id domain.SceneID) bool {
	full, ok := w.resolve(id)
	if !ok {
		return false
	}

	info, err := w.fs.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

func (w *Workspace) ListOpen(ctx context.Context) ([]domain.SceneID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.readState()
	if err != nil {
		return nil, err
	}

	return toSceneIDs(state.Open), nil
}

// Open replaces the open set (exclusive) or appends to it (additive). An
// additive open of an already open scene is a no-op.
func (w *Workspace) Open(ctx context.Context, id domain.SceneID, mode domain.OpenMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !w.Exists(ctx, id) {
		return fmt.Errorf("open %q: %w", id, domain.ErrSceneNotFound)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.readState()
	if err != nil {
		return err
	}

	switch mode {
	case domain.OpenExclusive:
		state.Open = []string{string(id)}
	case domain.OpenAdditive:
		if !slices.Contains(state.Open, string(id)) {
			state.Open = append(state.Open, string(id))
		}
	default:
		return fmt.Errorf("open %q: unsupported mode %s", id, mode)
	}
	state.Modified = retain(state.Modified, state.Open)

	return w.writeState(state)
}

func (w *Workspace) Close(ctx context.Context, id domain.SceneID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.readState()
	if err != nil {
		return err
	}

	index := slices.Index(state.Open, string(id))
	if index < 0 {
		return fmt.Errorf("close %q: scene is not open", id)
	}
	state.Open = slices.Delete(state.Open, index, index+1)
	state.Modified = retain(state.Modified, state.Open)

	return w.writeState(state)
}

// MarkModified flags an open scene as having unsaved changes.
func (w *Workspace) MarkModified(ctx context.Context, id domain.SceneID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.readState()
	if err != nil {
		return err
	}
	if !slices.Contains(state.Open, string(id)) {
		return fmt.Errorf("mark %q modified: scene is not open", id)
	}
	if !slices.Contains(state.Modified, string(id)) {
		state.Modified = append(state.Modified, string(id))
	}

	return w.writeState(state)
}

func (w *Workspace) Modified(ctx context.Context) ([]domain.SceneID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.readState()
	if err != nil {
		return nil, err
	}

	return toSceneIDs(state.Modified), nil
}

// SaveAll marks every modified scene as saved.
func (w *Workspace) SaveAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	state, err := w.readState()
	if err != nil {
		return err
	}
	state.Modified = nil

	return w.writeState(state)
}

func (w *Workspace) resolve(id domain.SceneID) (string, bool) {
	if id.IsZero() {
		return "", false
	}
	normalized, err := w.Normalize(string(id))
	if err != nil || normalized != id {
		return "", false
	}
	return filepath.Join(w.root, filepath.FromSlash(string(id))), true
}

func (w *Workspace) readState() (stateSchema, error) {
	data, err := afero.ReadFile(w.fs, w.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			state := stateSchema{}
			state.applyDefaults()
			return state, nil
		}
		return stateSchema{}, fmt.Errorf("read workspace file: %w", err)
	}

	var state stateSchema
	if err := toml.Unmarshal(data, &state); err != nil {
		return stateSchema{}, fmt.Errorf("decode workspace file: %w", err)
	}
	if err := state.validateVersion(); err != nil {
		return stateSchema{}, err
	}
	state.applyDefaults()

	return state, nil
}

func (w *Workspace) writeState(state stateSchema) error {
	state.applyDefaults()

	dir := filepath.Dir(w.statePath)
	if err := w.fs.MkdirAll(dir, stateDirMode); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}

	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode workspace file: %w", err)
	}

	tempFile, err := afero.TempFile(w.fs, dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp workspace file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = w.fs.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp workspace file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp workspace file: %w", err)
	}

	if err := w.fs.Chmod(tempName, stateFileMode); err != nil {
		return fmt.Errorf("chmod temp workspace file: %w", err)
	}

	if err := w.fs.Rename(tempName, w.statePath); err != nil {
		return fmt.Errorf("replace workspace file: %w", err)
	}

	cleanup = false
	return nil
}

func toSceneIDs(values []string) []domain.SceneID {
	ids := make([]domain.SceneID, 0, len(values))
	for _, value := range values {
		ids = append(ids, domain.SceneID(value))
	}
	return ids
}

// retain keeps the entries of values that are also in keep.
func retain(values, keep []string) []string {
	var out []string
	for _, value := range values {
		if slices.Contains(keep, value) {
			out = append(out, value)
		}
	}
	return out
}
