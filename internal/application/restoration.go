package application

import (
	"context"
	"errors"
	"sync"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
)

// RestoreReport describes one pass over a snapshot.
type RestoreReport struct {
	RunID  string
	Opened []domain.SceneID
	// Issues holds one *domain.SnapshotEntryError per skipped entry.
	Issues []error
	// Err is set when the snapshot could not be cleared afterwards.
	Err error
}

func (r RestoreReport) StaleCount() int {
	count := 0
	for _, issue := range r.Issues {
		if errors.Is(issue, domain.ErrStaleSnapshotEntry) {
			count++
		}
	}
	return count
}

// Restoration completes once the host has left the running state and the
// editing layout has been restored.
type Restoration struct {
	done   chan struct{}
	once   sync.Once
	report RestoreReport
}

func newRestoration() *Restoration {
	return &Restoration{done: make(chan struct{})}
}

func (r *Restoration) Done() <-chan struct{} {
	return r.done
}

// Report is only meaningful after Done is closed.
func (r *Restoration) Report() RestoreReport {
	select {
	case <-r.done:
		return r.report
	default:
		return RestoreReport{}
	}
}

func (r *Restoration) Wait(ctx context.Context) (RestoreReport, error) {
	select {
	case <-ctx.Done():
		return RestoreReport{}, ctx.Err()
	case <-r.done:
		return r.report, nil
	}
}

func (r *Restoration) complete(report RestoreReport) {
	r.once.Do(func() {
		r.report = report
		close(r.done)
	})
}
