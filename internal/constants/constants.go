package constants

import "time"

var APIConfig = struct {
	GitHubAPIURL     string
	GitHubGraphQLURL string
	Timeout          time.Duration
	UserAgent        string
}{
	GitHubAPIURL:     "https://api.github.com",
	GitHubGraphQLURL: "https://api.github.com/graphql",
	Timeout:          30 * time.Second,
	UserAgent:        "follower-change",
}

var PaginationConfig = struct {
	FollowersPerPage int
	ArchiveListLimit int
}{
	FollowersPerPage: 100, // GraphQL connection maximum
	ArchiveListLimit: 10,
}

var ArtifactConfig = struct {
	Name          string
	FileName      string
	WorkDir       string
	Version       int
	ResultsPrefix string
}{
	Name:          "my-followers",
	FileName:      "followers.json",
	WorkDir:       ".",
	Version:       4,
	ResultsPrefix: "twirp/github.actions.results.api.v1.ArtifactService/",
}

var RedisConfig = struct {
	KeyPrefix    string
	ReadyTimeout time.Duration
}{
	KeyPrefix:    "follower-change:archive",
	ReadyTimeout: 5 * time.Second,
}

var DatabaseConfig = struct {
	PingTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}{
	PingTimeout:     5 * time.Second,
	MaxOpenConns:    5,
	MaxIdleConns:    2,
	ConnMaxLifetime: 5 * time.Minute,
}

var NotificationConfig = struct {
	SendTimeout    time.Duration
	MaxConcurrency int
}{
	SendTimeout:    30 * time.Second,
	MaxConcurrency: 4,
}

var StringLimits = struct {
	Bio      int
	Location int
}{
	Bio:      160,
	Location: 60,
}

// RunTimeout bounds a whole run when the calling environment sets none.
const RunTimeout = 15 * time.Minute
