package database

import (
	"database/sql"

	"go.uber.org/zap"
)

// Dialect selects SQL placeholder syntax and DDL differences.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Service owns one database handle.
type Service struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

func (s *Service) GetDB() *sql.DB {
	return s.db
}

func (s *Service) Dialect() Dialect {
	return s.dialect
}

func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.String("dialect", s.dialect.String()), zap.Error(err))
		return err
	}
	return nil
}
