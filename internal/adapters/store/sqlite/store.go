// Package sqlite stores the session record in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/store/sqlite/migrations"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
	_ "modernc.org/sqlite"
)

const (
	currentSchemaVersion = 1
	storeDirMode         = 0o700
)

// Store provides SQLite-backed persistence for the session record.
type Store struct {
	sqlDB *sql.DB
}

var _ ports.PersistentStore = (*Store)(nil)

// Open opens and migrates the session database at path, creating its
// directory when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), storeDirMode); err != nil {
		return nil, unavailable(fmt.Errorf("create storage directory: %w", err))
	}

	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, unavailable(fmt.Errorf("open sqlite db: %w", err))
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, unavailable(fmt.Errorf("ping sqlite db: %w", err))
	}

	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, unavailable(fmt.Errorf("run migrations: %w", err))
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ReadRecord(ctx context.Context) (domain.SessionRecord, bool, error) {
	if s == nil || s.sqlDB == nil {
		return domain.SessionRecord{}, false, unavailable(errors.New("storage is not configured"))
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT version, entrance, run_id, captured_at FROM session_record WHERE id = 1`,
	)

	var (
		version    int
		entrance   string
		runID      string
		capturedAt int64
	)
	if err := row.Scan(&version, &entrance, &runID, &capturedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SessionRecord{}, false, nil
		}
		return domain.SessionRecord{}, false, unavailable(fmt.Errorf("get session record: %w", err))
	}
	if version > currentSchemaVersion {
		return domain.SessionRecord{}, false, unavailable(fmt.Errorf("%w: session record version %d (current %d)", domain.ErrUnsupportedSchema, version, currentSchemaVersion))
	}

	snapshot, err := s.readSnapshot(ctx)
	if err != nil {
		return domain.SessionRecord{}, false, unavailable(err)
	}

	return domain.SessionRecord{
		Entrance:   domain.SceneID(entrance),
		Snapshot:   snapshot,
		RunID:      runID,
		CapturedAt: unixMillisToTime(capturedAt),
	}, true, nil
}

func (s *Store) readSnapshot(ctx context.Context) ([]domain.SceneID, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT scene_id FROM session_snapshot ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list snapshot entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	snapshot := make([]domain.SceneID, 0)
	for rows.Next() {
		var sceneID string
		if err := rows.Scan(&sceneID); err != nil {
			return nil, fmt.Errorf("scan snapshot entry: %w", err)
		}
		snapshot = append(snapshot, domain.SceneID(sceneID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot entries: %w", err)
	}
	return snapshot, nil
}

// WriteRecord replaces the record and its snapshot rows in one transaction.
func (s *Store) WriteRecord(ctx context.Context, record domain.SessionRecord) error {
	if s == nil || s.sqlDB == nil {
		return unavailable(errors.New("storage is not configured"))
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(fmt.Errorf("begin session transaction: %w", err))
	}

	if err := writeRecordTx(ctx, tx, record); err != nil {
		_ = tx.Rollback()
		return unavailable(err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable(fmt.Errorf("commit session transaction: %w", err))
	}
	return nil
}

func writeRecordTx(ctx context.Context, tx *sql.Tx, record domain.SessionRecord) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_record (id, version, entrance, run_id, captured_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    version = excluded.version,
		    entrance = excluded.entrance,
		    run_id = excluded.run_id,
		    captured_at = excluded.captured_at`,
		currentSchemaVersion,
		string(record.Entrance),
		record.RunID,
		timeToUnixMillis(record.CapturedAt),
	); err != nil {
		return fmt.Errorf("put session record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_snapshot`); err != nil {
		return fmt.Errorf("clear snapshot entries: %w", err)
	}

	for position, id := range record.Snapshot {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_snapshot (position, scene_id) VALUES (?, ?)`,
			position,
			string(id),
		); err != nil {
			return fmt.Errorf("put snapshot entry %d: %w", position, err)
		}
	}

	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
