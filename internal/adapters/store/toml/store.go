package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	sessionFileMode = 0o600
	sessionDirMode  = 0o700
	tempFilePattern = ".session-*.toml.tmp"
)

// Store persists the session record as a versioned TOML document.
type Store struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.PersistentStore = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("session path is empty")
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &Store{path: path, mu: lockForPath(path)}, nil
}

func (s *Store) ReadRecord(ctx context.Context) (domain.SessionRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionRecord{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, found, err := s.readSchema()
	if err != nil {
		return domain.SessionRecord{}, false, unavailable(err)
	}
	if !found {
		return domain.SessionRecord{}, false, nil
	}

	return fromSchema(file), true, nil
}

func (s *Store) WriteRecord(ctx context.Context, record domain.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeSchema(toSchema(record)); err != nil {
		return unavailable(err)
	}

	return nil
}

func (s *Store) readSchema() (fileSchema, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, false, nil
		}
		return fileSchema{}, false, fmt.Errorf("read session file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, false, fmt.Errorf("decode session file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, false, err
	}
	file.applyDefaults()

	return file, true, nil
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.path), sessionDirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}

	if err := tempFile.Chmod(sessionFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}

	// The record must be on disk before the rename makes it visible.
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp session file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	cleanup = false

	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve session path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(record domain.SessionRecord) fileSchema {
	snapshot := make([]string, 0, len(record.Snapshot))
	for _, id := range record.Snapshot {
		snapshot = append(snapshot, string(id))
	}

	return fileSchema{
		Version:    currentSchemaVersion,
		Entrance:   string(record.Entrance),
		RunID:      record.RunID,
		CapturedAt: formatTime(record.CapturedAt),
		Snapshot:   snapshot,
	}
}

func fromSchema(file fileSchema) domain.SessionRecord {
	snapshot := make([]domain.SceneID, 0, len(file.Snapshot))
	for _, id := range file.Snapshot {
		snapshot = append(snapshot, domain.SceneID(id))
	}

	return domain.SessionRecord{
		Entrance:   domain.SceneID(file.Entrance),
		Snapshot:   snapshot,
		RunID:      file.RunID,
		CapturedAt: parseTime(file.CapturedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
