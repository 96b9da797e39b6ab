package app

import (
	"context"
	"fmt"
	"io"

	"github.com/Sorosliu1029/follower-change/internal/actions"
	"github.com/Sorosliu1029/follower-change/internal/archive"
	"github.com/Sorosliu1029/follower-change/internal/config"
	"github.com/Sorosliu1029/follower-change/internal/github"
	"github.com/Sorosliu1029/follower-change/internal/notify"
	"github.com/Sorosliu1029/follower-change/internal/service/cache"
	"github.com/Sorosliu1029/follower-change/internal/service/database"
	"github.com/Sorosliu1029/follower-change/internal/service/follower"
	"github.com/Sorosliu1029/follower-change/internal/service/snapshot"
	"go.uber.org/zap"
)

// Container bundles the assembled services of one run.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Outputs *actions.OutputWriter
	Runner  *Runner
	Writer  *snapshot.Writer

	closers []func()
}

// Close releases backend connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles every service the run needs. console receives workflow
// commands and, outside GitHub Actions, the output summary.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, console io.Writer) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	container = &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			container.Close()
			container = nil
		}
	}()

	ghClient, err := github.NewClient(github.ClientConfig{
		Token:      cfg.GitHub.Token,
		APIURL:     cfg.GitHub.APIURL,
		GraphQLURL: cfg.GitHub.GraphQLURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create github client: %w", err)
	}

	store, err := container.buildArchiveStore(ctx, ghClient)
	if err != nil {
		return nil, err
	}
	logger.Info("Archive backend ready", zap.String("backend", cfg.Archive.Backend))

	restorer := snapshot.NewStore(store, snapshot.StoreConfig{
		FileName:  cfg.Archive.FileName,
		ListLimit: cfg.Archive.ListLimit,
	}, logger)
	writer := snapshot.NewWriter(store, snapshot.WriterConfig{
		WorkDir:     cfg.Archive.WorkDir,
		FileName:    cfg.Archive.FileName,
		ArchiveName: cfg.Archive.Name,
		Retention:   cfg.Archive.Retention(),
	}, logger)
	fetcher := follower.NewFetcher(ghClient, logger)
	container.Writer = writer

	container.Outputs = actions.NewOutputWriter(cfg.GitHub.OutputPath, console, logger)

	var dispatcher Dispatcher
	if notifiers := buildNotifiers(cfg); len(notifiers) > 0 {
		dispatcher = notify.NewDispatcher(logger, notifiers...)
		logger.Info("Notifications enabled", zap.Int("notifiers", len(notifiers)))
	}

	container.Runner = NewRunner(RunnerConfig{
		ArchiveName:        cfg.Archive.Name,
		PageSize:           cfg.Archive.PageSize,
		IncludeUnfollowers: cfg.Inputs.IncludeUnfollower,
	}, restorer, fetcher, writer, container.Outputs, dispatcher, logger)

	return container, nil
}

func (c *Container) buildArchiveStore(ctx context.Context, ghClient *github.Client) (archive.Store, error) {
	cfg, logger := c.Config, c.Logger

	switch cfg.Archive.Backend {
	case config.BackendGitHub:
		results, err := github.NewResultsClient(cfg.GitHub.ResultsURL, cfg.GitHub.RuntimeToken, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create results client: %w", err)
		}
		store, err := archive.NewArtifactStore(ghClient, results, cfg.GitHub.Repository, logger)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendRedis:
		cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		c.closers = append(c.closers, func() {
			_ = cacheSvc.Close()
		})
		return archive.NewRedisStore(cacheSvc, cfg.Redis.KeyPrefix, logger), nil

	case config.BackendPostgres, config.BackendSQLite:
		var (
			dbSvc *database.Service
			err   error
		)
		if cfg.Archive.Backend == config.BackendPostgres {
			dbSvc, err = database.NewPostgresService(database.PostgresConfig{
				Host:     cfg.Postgres.Host,
				Port:     cfg.Postgres.Port,
				User:     cfg.Postgres.User,
				Password: cfg.Postgres.Password,
				Database: cfg.Postgres.Database,
				SSLMode:  cfg.Postgres.SSLMode,
			}, logger)
		} else {
			dbSvc, err = database.NewSQLiteService(cfg.SQLite.Path, logger)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create database service: %w", err)
		}
		c.closers = append(c.closers, func() {
			_ = dbSvc.Close()
		})

		store, err := archive.NewSQLStore(ctx, dbSvc.GetDB(), dbSvc.Dialect(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare archive table: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

func buildNotifiers(cfg *config.Config) []notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notification.EmailEnabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailConfig{
			Server:   cfg.Notification.SMTPHost,
			Port:     cfg.Notification.SMTPPort,
			Username: cfg.Notification.SMTPUsername,
			Password: cfg.Notification.SMTPPassword,
			From:     cfg.Notification.EmailFrom,
			To:       cfg.Notification.EmailTo,
		}))
	}
	if cfg.Notification.WebhookEnabled() {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notification.WebhookURL, nil))
	}
	return notifiers
}
