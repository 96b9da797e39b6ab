package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/Sorosliu1029/follower-change/pkg/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password util.Secret
	Database string
	SSLMode  string
}

func (c PostgresConfig) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password.Reveal(), c.Database, sslMode)
}

func NewPostgresService(cfg PostgresConfig, logger *zap.Logger) (*Service, error) {
	db, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return nil, errors.NewStorageError("failed to open postgres", DialectPostgres.String(), "open", cfg.Database, err)
	}

	svc, err := newService(db, DialectPostgres, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)
	return svc, nil
}

func newService(db *sql.DB, dialect Dialect, logger *zap.Logger) (*Service, error) {
	db.SetMaxOpenConns(constants.DatabaseConfig.MaxOpenConns)
	db.SetMaxIdleConns(constants.DatabaseConfig.MaxIdleConns)
	db.SetConnMaxLifetime(constants.DatabaseConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseConfig.PingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("failed to ping database", dialect.String(), "ping", "", err)
	}

	return &Service{db: db, dialect: dialect, logger: logger}, nil
}
