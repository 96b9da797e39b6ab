package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/Sorosliu1029/follower-change/pkg/errors"
	"github.com/joho/godotenv"
)

// Archive backends.
const (
	BackendGitHub   = "github"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	GitHub       GitHubConfig
	Inputs       InputsConfig
	Archive      ArchiveConfig
	Redis        RedisConfig
	Postgres     PostgresConfig
	SQLite       SQLiteConfig
	Notification NotificationConfig
	Logging      LoggingConfig
}

type GitHubConfig struct {
	Token        util.Secret
	Repository   string
	APIURL       string
	GraphQLURL   string
	OutputPath   string
	RuntimeToken util.Secret
	ResultsURL   string
}

// InputsConfig holds the action inputs declared in action.yml.
type InputsConfig struct {
	IncludeUnfollower bool
}

type ArchiveConfig struct {
	Backend       string
	Name          string
	FileName      string
	WorkDir       string
	RetentionDays int
	ListLimit     int
	PageSize      int
}

// Retention is zero when the backend default applies.
func (a ArchiveConfig) Retention() time.Duration {
	if a.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  util.Secret
	DB        int
	KeyPrefix string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password util.Secret
	Database string
	SSLMode  string
}

type SQLiteConfig struct {
	Path string
}

type NotificationConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword util.Secret
	EmailFrom    string
	EmailTo      []string
	WebhookURL   string
}

func (n NotificationConfig) EmailEnabled() bool {
	return len(n.EmailTo) > 0
}

func (n NotificationConfig) WebhookEnabled() bool {
	return n.WebhookURL != ""
}

type LoggingConfig struct {
	Level string
	File  string
}

// Load reads the environment (after an optional .env file) and validates it.
func Load() (*Config, error) {
	cfg := Parse()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Parse reads the environment without validating it.
func Parse() *Config {
	_ = godotenv.Load()

	token := getEnv("INPUT_MYTOKEN", "")
	if token == "" {
		token = getEnv("GITHUB_TOKEN", "")
	}

	return &Config{
		GitHub: GitHubConfig{
			Token:        util.NewSecret(token),
			Repository:   getEnv("GITHUB_REPOSITORY", ""),
			APIURL:       getEnv("GITHUB_API_URL", constants.APIConfig.GitHubAPIURL),
			GraphQLURL:   getEnv("GITHUB_GRAPHQL_URL", constants.APIConfig.GitHubGraphQLURL),
			OutputPath:   getEnv("GITHUB_OUTPUT", ""),
			RuntimeToken: util.NewSecret(getEnv("ACTIONS_RUNTIME_TOKEN", "")),
			ResultsURL:   getEnv("ACTIONS_RESULTS_URL", ""),
		},
		Inputs: InputsConfig{
			IncludeUnfollower: getEnvBool("INPUT_INCLUDEUNFOLLOWER", false),
		},
		Archive: ArchiveConfig{
			Backend:       strings.ToLower(getEnv("ARCHIVE_BACKEND", BackendGitHub)),
			Name:          getEnv("ARTIFACT_NAME", constants.ArtifactConfig.Name),
			FileName:      getEnv("SNAPSHOT_FILE", constants.ArtifactConfig.FileName),
			WorkDir:       getEnv("WORK_DIR", constants.ArtifactConfig.WorkDir),
			RetentionDays: getEnvInt("RETENTION_DAYS", 0),
			ListLimit:     getEnvInt("ARCHIVE_LIST_LIMIT", constants.PaginationConfig.ArchiveListLimit),
			PageSize:      getEnvInt("PAGE_SIZE", constants.PaginationConfig.FollowersPerPage),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnvInt("REDIS_PORT", 6379),
			Password:  util.NewSecret(getEnv("REDIS_PASSWORD", "")),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", constants.RedisConfig.KeyPrefix),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: util.NewSecret(getEnv("POSTGRES_PASSWORD", "")),
			Database: getEnv("POSTGRES_DB", ""),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "follower-change.db"),
		},
		Notification: NotificationConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: util.NewSecret(getEnv("SMTP_PASSWORD", "")),
			EmailFrom:    getEnv("SMTP_FROM", ""),
			EmailTo:      parseCommaSeparated(getEnv("NOTIFY_EMAIL_TO", "")),
			WebhookURL:   getEnv("WEBHOOK_URL", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}
}

func (c *Config) Validate() error {
	if c.GitHub.Token.IsEmpty() {
		return errors.NewValidationError("INPUT_MYTOKEN (or GITHUB_TOKEN) is required", "INPUT_MYTOKEN", nil)
	}
	if c.Archive.Name == "" {
		return errors.NewValidationError("ARTIFACT_NAME must not be empty", "ARTIFACT_NAME", c.Archive.Name)
	}
	if c.Archive.FileName == "" || strings.ContainsAny(c.Archive.FileName, `/\`) {
		return errors.NewValidationError("SNAPSHOT_FILE must be a plain file name", "SNAPSHOT_FILE", c.Archive.FileName)
	}
	if c.Archive.PageSize < 1 || c.Archive.PageSize > constants.PaginationConfig.FollowersPerPage {
		return errors.NewValidationError(
			fmt.Sprintf("PAGE_SIZE must be between 1 and %d", constants.PaginationConfig.FollowersPerPage),
			"PAGE_SIZE", c.Archive.PageSize)
	}
	if c.Archive.ListLimit < 1 {
		return errors.NewValidationError("ARCHIVE_LIST_LIMIT must be positive", "ARCHIVE_LIST_LIMIT", c.Archive.ListLimit)
	}
	if c.Archive.RetentionDays < 0 {
		return errors.NewValidationError("RETENTION_DAYS must not be negative", "RETENTION_DAYS", c.Archive.RetentionDays)
	}

	switch c.Archive.Backend {
	case BackendGitHub:
		if owner, repo, ok := strings.Cut(c.GitHub.Repository, "/"); !ok || owner == "" || repo == "" {
			return errors.NewValidationError("GITHUB_REPOSITORY must look like owner/name", "GITHUB_REPOSITORY", c.GitHub.Repository)
		}
		if c.GitHub.RuntimeToken.IsEmpty() || c.GitHub.ResultsURL == "" {
			return errors.NewValidationError(
				"ACTIONS_RUNTIME_TOKEN and ACTIONS_RESULTS_URL are required to upload artifacts", "ACTIONS_RUNTIME_TOKEN", nil)
		}
	case BackendRedis:
		if c.Redis.Host == "" {
			return errors.NewValidationError("REDIS_HOST is required", "REDIS_HOST", nil)
		}
	case BackendPostgres:
		if c.Postgres.Database == "" {
			return errors.NewValidationError("POSTGRES_DB is required", "POSTGRES_DB", nil)
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.NewValidationError("SQLITE_PATH is required", "SQLITE_PATH", nil)
		}
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown ARCHIVE_BACKEND %q", c.Archive.Backend), "ARCHIVE_BACKEND", c.Archive.Backend)
	}

	if c.Notification.EmailEnabled() {
		if c.Notification.SMTPHost == "" {
			return errors.NewValidationError("SMTP_HOST is required when NOTIFY_EMAIL_TO is set", "SMTP_HOST", nil)
		}
		if c.Notification.EmailFrom == "" {
			return errors.NewValidationError("SMTP_FROM is required when NOTIFY_EMAIL_TO is set", "SMTP_FROM", nil)
		}
	}
	return nil
}

// Secrets lists every configured credential for log redaction.
func (c *Config) Secrets() []util.Secret {
	all := []util.Secret{
		c.GitHub.Token,
		c.GitHub.RuntimeToken,
		c.Redis.Password,
		c.Postgres.Password,
		c.Notification.SMTPPassword,
	}
	out := make([]util.Secret, 0, len(all))
	for _, s := range all {
		if !s.IsEmpty() {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
