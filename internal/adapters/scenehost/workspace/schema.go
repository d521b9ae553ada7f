package workspace

import (
	"fmt"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
)

const currentSchemaVersion = 1

type stateSchema struct {
	Version  int      `toml:"version"`
	Open     []string `toml:"open"`
	Modified []string `toml:"modified,omitempty"`
}

func (s *stateSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Open == nil {
		s.Open = []string{}
	}
}

func (s stateSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("%w: workspace file version %d (current %d)", domain.ErrUnsupportedSchema, s.Version, currentSchemaVersion)
	}

	return nil
}
