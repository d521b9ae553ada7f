package ports

import (
	"context"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
)

// PersistentStore holds the single durable session record. Implementations
// wrap I/O failures with domain.ErrStorageUnavailable.
type PersistentStore interface {
	ReadRecord(ctx context.Context) (domain.SessionRecord, bool, error)
	WriteRecord(ctx context.Context, record domain.SessionRecord) error
}
