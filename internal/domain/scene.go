package domain

import (
	"fmt"
	"strings"
)

// SceneID is an opaque resource identifier handed out by a SceneHost.
type SceneID string

func (id SceneID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

type OpenMode int

const (
	OpenExclusive OpenMode = iota
	OpenAdditive
)

func (m OpenMode) String() string {
	switch m {
	case OpenExclusive:
		return "exclusive"
	case OpenAdditive:
		return "additive"
	default:
		return fmt.Sprintf("OpenMode(%d)", int(m))
	}
}
