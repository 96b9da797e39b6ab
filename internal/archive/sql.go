package archive

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/service/database"
	"github.com/Sorosliu1029/follower-change/pkg/errors"
	"go.uber.org/zap"
)

const archiveTable = "snapshot_archives"

// SQLStore keeps archives as rows of one table. Expired rows are deleted
// before each listing.
type SQLStore struct {
	db      *sql.DB
	dialect database.Dialect
	logger  *zap.Logger
	now     func() time.Time
}

// NewSQLStore creates the archive table when it is missing.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect database.Dialect, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SQLStore{db: db, dialect: dialect, logger: logger, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case database.DialectPostgres:
		ddl = `CREATE TABLE IF NOT EXISTS ` + archiveTable + ` (
			id         BIGSERIAL PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ,
			content    BYTEA NOT NULL
		)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS ` + archiveTable + ` (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP,
			content    BLOB NOT NULL
		)`
	}

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return s.storageError("failed to create archive table", "migrate", err)
	}
	index := `CREATE INDEX IF NOT EXISTS idx_` + archiveTable + `_created ON ` + archiveTable + ` (created_at)`
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return s.storageError("failed to create archive index", "migrate", err)
	}
	return nil
}

// bind rewrites $n placeholders for drivers that expect "?".
func (s *SQLStore) bind(query string) string {
	if s.dialect == database.DialectPostgres {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *SQLStore) storageError(msg, op string, err error) error {
	return errors.NewStorageError(msg, s.dialect.String(), op, archiveTable, err)
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Archive, error) {
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM `+archiveTable+` WHERE expires_at IS NOT NULL AND expires_at <= $1`), now)
	if err != nil {
		return nil, s.storageError("failed to purge expired archives", "purge", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Info("Purged expired archives", zap.Int64("count", n))
	}

	rows, err := s.db.QueryContext(ctx,
		s.bind(`SELECT id, name, created_at FROM `+archiveTable+` ORDER BY created_at DESC, id DESC LIMIT $1`), limit)
	if err != nil {
		return nil, s.storageError("failed to list archives", "list", err)
	}
	defer rows.Close()

	var archives []Archive
	for rows.Next() {
		var (
			a         Archive
			createdAt time.Time
		)
		if err := rows.Scan(&a.ID, &a.Name, &createdAt); err != nil {
			return nil, s.storageError("failed to scan archive row", "list", err)
		}
		createdAt = createdAt.UTC()
		a.CreatedAt = &createdAt
		archives = append(archives, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageError("failed to iterate archive rows", "list", err)
	}
	return archives, nil
}

func (s *SQLStore) Download(ctx context.Context, id int64) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT content FROM `+archiveTable+` WHERE id = $1`), id).Scan(&content)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("archive %d not found", id)
	}
	if err != nil {
		return nil, s.storageError("failed to read archive", "download", err)
	}
	return content, nil
}

func (s *SQLStore) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	content, items, err := Pack(req.Files, req.RootDir)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var expiresAt sql.NullTime
	if t := expiry(now, req.Retention); t != nil {
		expiresAt = sql.NullTime{Time: *t, Valid: true}
	}

	id, err := s.insert(ctx, req.Name, now, expiresAt, content)
	if err != nil {
		return nil, s.storageError("failed to insert archive", "upload", err)
	}

	s.logger.Info("Archive stored in database",
		zap.String("dialect", s.dialect.String()),
		zap.Int64("archive_id", id),
		zap.String("name", req.Name),
		zap.Int("size", len(content)),
	)
	return &UploadResult{ArchiveName: req.Name, Items: items, ID: id, Size: int64(len(content))}, nil
}

func (s *SQLStore) insert(ctx context.Context, name string, createdAt time.Time, expiresAt sql.NullTime, content []byte) (int64, error) {
	query := `INSERT INTO ` + archiveTable + ` (name, created_at, expires_at, content) VALUES ($1, $2, $3, $4)`

	// lib/pq does not implement LastInsertId.
	if s.dialect == database.DialectPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx, query+` RETURNING id`, name, createdAt, expiresAt, content).Scan(&id)
		return id, err
	}

	res, err := s.db.ExecContext(ctx, s.bind(query), name, createdAt, expiresAt, content)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
