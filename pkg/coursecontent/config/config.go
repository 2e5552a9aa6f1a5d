package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/course-content/pkg/coursecontent"
	fsstore "github.com/tendant/course-content/pkg/coursecontent/store/fs"
	"github.com/tendant/course-content/pkg/coursecontent/store/memory"
	pgstore "github.com/tendant/course-content/pkg/coursecontent/store/postgres"
	redisstore "github.com/tendant/course-content/pkg/coursecontent/store/redis"
	s3store "github.com/tendant/course-content/pkg/coursecontent/store/s3"
)

// Document store types.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreFS       = "fs"
	StoreS3       = "s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		StoreType:          StoreMemory,
		DBSchema:           "content",
		RedisPrefix:        redisstore.DefaultPrefix,
		DeleteMode:         coursecontent.DeleteModeLegacy,
		Concurrency:        coursecontent.ConcurrencyLastWriterWins,
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the course-content service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Document store selection
	StoreType string // "memory", "postgres", "redis", "fs", "s3"

	// Database configuration (postgres, redis)
	DatabaseURL string
	DBSchema    string // Postgres schema to use (default: content)
	RedisPrefix string // Key prefix for the redis store

	// Object storage configuration (fs, s3)
	FSBaseDir string
	S3        s3store.Config

	// Mutation behaviour
	DeleteMode  coursecontent.DeleteMode
	Concurrency coursecontent.ConcurrencyMode

	// Server options
	EnableEventLogging bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.StoreType {
	case StoreMemory:
	case StorePostgres, StoreRedis:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.StoreType)
		}
	case StoreFS:
		if c.FSBaseDir == "" {
			return errors.New("filesystem base directory is required when using fs")
		}
	case StoreS3:
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3")
		}
	default:
		return fmt.Errorf("store_type must be one of memory, postgres, redis, fs, s3; got %q", c.StoreType)
	}

	switch c.DeleteMode {
	case coursecontent.DeleteModeLegacy, coursecontent.DeleteModeItemOnly:
	default:
		return fmt.Errorf("delete_mode must be %q or %q", coursecontent.DeleteModeLegacy, coursecontent.DeleteModeItemOnly)
	}

	switch c.Concurrency {
	case coursecontent.ConcurrencyLastWriterWins:
	case coursecontent.ConcurrencyOptimistic:
		if c.StoreType == StoreS3 {
			return errors.New("optimistic concurrency is not supported by the s3 store")
		}
	default:
		return fmt.Errorf("concurrency must be %q or %q", coursecontent.ConcurrencyLastWriterWins, coursecontent.ConcurrencyOptimistic)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService() (coursecontent.Service, error) {
	return c.BuildServiceWithLogger(slog.Default())
}

// BuildServiceWithLogger is BuildService with an explicit logger for both the
// service and its event sink. A nil logger means slog.Default().
func (c *ServerConfig) BuildServiceWithLogger(logger *slog.Logger) (coursecontent.Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := c.BuildStore(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to build document store: %w", err)
	}

	options := []coursecontent.Option{
		coursecontent.WithStore(store),
		coursecontent.WithLogger(logger),
		coursecontent.WithDeleteMode(c.DeleteMode),
		coursecontent.WithConcurrency(c.Concurrency),
	}

	if c.EnableEventLogging {
		options = append(options, coursecontent.WithEventSink(coursecontent.NewLoggingEventSink(logger)))
	}

	return coursecontent.New(options...)
}

// BuildStore creates the DocumentStore selected by StoreType
func (c *ServerConfig) BuildStore(ctx context.Context) (coursecontent.DocumentStore, error) {
	switch c.StoreType {
	case StoreMemory:
		return memory.New(), nil
	case StorePostgres:
		pool, err := newPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, err
		}
		return pgstore.NewWithPool(pool), nil
	case StoreRedis:
		return redisstore.NewFromURL(ctx, c.DatabaseURL, c.RedisPrefix)
	case StoreFS:
		return fsstore.New(fsstore.Config{BaseDir: c.FSBaseDir})
	case StoreS3:
		return s3store.New(c.S3)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", c.StoreType)
	}
}

func newPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			// set search_path for this session
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres and optionally sets search_path for the session.
// It fails if the schema (when provided) does not exist.
func PingPostgres(databaseURL, schema string) error {
	pool, err := newPool(context.Background(), databaseURL, schema)
	if err != nil {
		return err
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
