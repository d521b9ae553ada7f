package ports

import (
	"context"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
)

type SceneHost interface {
	// ListOpen returns the open scenes in host order.
	ListOpen(ctx context.Context) ([]domain.SceneID, error)
	Exists(ctx context.Context, id domain.SceneID) bool
	Open(ctx context.Context, id domain.SceneID, mode domain.OpenMode) error
}

// SavePrompter gives the user a chance to save modified scenes before they
// are discarded. proceed is false when the user aborted.
type SavePrompter interface {
	SaveModifiedIfUserWants(ctx context.Context) (proceed bool, err error)
}
