package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Import   ImportConfig   `yaml:"import"`
	Redis    RedisConfig    `yaml:"redis"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// UpstreamConfig holds settings for the submission platform API.
type UpstreamConfig struct {
	BaseURL           string        `yaml:"base_url"            env:"UPSTREAM_BASE_URL"            env-default:"https://conference-hall.io"`
	Timeout           time.Duration `yaml:"timeout"             env:"UPSTREAM_TIMEOUT"             env-default:"10s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"UPSTREAM_REQUESTS_PER_SECOND" env-default:"5"`
	Burst             int           `yaml:"burst"               env:"UPSTREAM_BURST"               env-default:"1"`
}

// ImportConfig holds reconciliation engine settings.
type ImportConfig struct {
	// MaxBatchOps caps the mutations committed in one chunk. The store rejects
	// batches above 500 operations; the default keeps headroom below that.
	MaxBatchOps       int           `yaml:"max_batch_ops"       env:"IMPORT_MAX_BATCH_OPS"       env-default:"430"`
	ReadConcurrency   int           `yaml:"read_concurrency"    env:"IMPORT_READ_CONCURRENCY"    env-default:"8"`
	DefaultLanguage   string        `yaml:"default_language"    env:"IMPORT_DEFAULT_LANGUAGE"    env-default:"en"`
	DefaultTrackColor string        `yaml:"default_track_color" env:"IMPORT_DEFAULT_TRACK_COLOR" env-default:"#7C3AED"`
	DefaultTrackIcon  string        `yaml:"default_track_icon"  env:"IMPORT_DEFAULT_TRACK_ICON"  env-default:"tag"`
	Interval          time.Duration `yaml:"interval"            env:"IMPORT_INTERVAL"            env-default:"15m"`
}

// RedisConfig holds the optional import lock backend. An empty URL disables locking.
type RedisConfig struct {
	URL     string        `yaml:"url"      env:"REDIS_URL"`
	LockTTL time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL" env-default:"10m"`
}

// MetricsConfig holds the ops listener (/metrics and health probes) used in
// watch mode. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

const (
	// MaxStoreBatchOps is the hard per-batch operation limit of the store.
	MaxStoreBatchOps = 500
	// MinBatchOps is the largest group of writes that must share a chunk:
	// a person write with its email claim and release.
	MinBatchOps = 3
)
