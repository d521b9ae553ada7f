package toml

import (
	"fmt"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version    int      `toml:"version"`
	Entrance   string   `toml:"entrance"`
	RunID      string   `toml:"run_id,omitempty"`
	CapturedAt string   `toml:"captured_at,omitempty"`
	Snapshot   []string `toml:"snapshot"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Snapshot == nil {
		s.Snapshot = []string{}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("%w: session file version %d (current %d)", domain.ErrUnsupportedSchema, s.Version, currentSchemaVersion)
	}

	return nil
}
