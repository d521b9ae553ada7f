package ports

import (
	"context"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
)

type RunHost interface {
	EnterRunning(ctx context.Context, entrance domain.SceneID) error
	ExitRunning(ctx context.Context) error
	// OnRunningExited registers a one-shot callback fired once the running
	// state has fully ended. A registration that has not fired yet is
	// replaced by a later one. The callback may run on any goroutine.
	OnRunningExited(fn func())
}
