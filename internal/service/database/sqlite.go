package database

import (
	"database/sql"

	"github.com/Sorosliu1029/follower-change/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// NewSQLiteService opens a file-backed database; ":memory:" works for tests.
func NewSQLiteService(path string, logger *zap.Logger) (*Service, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open sqlite", DialectSQLite.String(), "open", path, err)
	}

	svc, err := newService(db, DialectSQLite, logger)
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	logger.Info("SQLite opened", zap.String("path", path))
	return svc, nil
}
