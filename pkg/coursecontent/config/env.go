package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/tendant/course-content/pkg/coursecontent"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Server (cmd/server only):
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//
// Document store, one of:
//
//	DATABASE_URL - "memory" (default), "postgres://..." / "postgresql://..."
//	               or "redis://..." / "rediss://..."
//	DATABASE_SCHEMA - Postgres schema (default: "content")
//	REDIS_PREFIX - Redis key prefix (default: "coursecontent")
//	STORAGE_URL - "file:///path/to/data" or
//	              "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true&prefix=docs"
//	              used when DATABASE_URL does not select a database
//
// Behaviour:
//
//	CONTENT_DELETE_MODE - "legacy" (default) or "item-only"
//	CONTENT_CONCURRENCY - "last-writer-wins" (default) or "optimistic"
//	EVENT_LOGGING - log one line per document event (default: true)
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		// Server-level config (cmd/server only)
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		if err := applyDatabaseEnv(prefix, c); err != nil {
			return err
		}
		if err := applyStorageEnv(prefix, c); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "CONTENT_DELETE_MODE"); ok && v != "" {
			c.DeleteMode = coursecontent.DeleteMode(strings.ToLower(v))
		}
		if v, ok := lookupEnv(prefix, "CONTENT_CONCURRENCY"); ok && v != "" {
			c.Concurrency = coursecontent.ConcurrencyMode(strings.ToLower(v))
		}

		enabled, ok, err := parseBoolEnv(prefix, "EVENT_LOGGING")
		if err != nil {
			return err
		}
		if ok {
			c.EnableEventLogging = enabled
		}

		return nil
	}
}

// applyDatabaseEnv applies database configuration from environment
func applyDatabaseEnv(prefix string, c *ServerConfig) error {
	if v, ok := lookupEnv(prefix, "DATABASE_SCHEMA"); ok && v != "" {
		c.DBSchema = v
	}
	if v, ok := lookupEnv(prefix, "REDIS_PREFIX"); ok && v != "" {
		c.RedisPrefix = v
	}

	dbURL, hasURL := lookupEnv(prefix, "DATABASE_URL")
	if !hasURL || dbURL == "" || dbURL == "memory" {
		c.StoreType = StoreMemory
		c.DatabaseURL = ""
		return nil
	}

	// Auto-detect database type from URL
	switch {
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.StoreType = StorePostgres
	case strings.HasPrefix(dbURL, "redis://"), strings.HasPrefix(dbURL, "rediss://"):
		c.StoreType = StoreRedis
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'postgresql://...' or 'redis://...')", dbURL)
	}
	c.DatabaseURL = dbURL
	return nil
}

// applyStorageEnv applies object storage configuration from environment. A
// database selected by DATABASE_URL takes precedence.
func applyStorageEnv(prefix string, c *ServerConfig) error {
	storageURL, hasURL := lookupEnv(prefix, "STORAGE_URL")
	if !hasURL || storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
		return nil
	}

	if c.StoreType != StoreMemory {
		return fmt.Errorf("STORAGE_URL and DATABASE_URL both select a document store; set only one")
	}

	switch {
	case strings.HasPrefix(storageURL, "file://"):
		return applyFilesystemStorage(storageURL, c)
	case strings.HasPrefix(storageURL, "s3://"):
		return applyS3Storage(storageURL, c)
	}

	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", storageURL)
}

// applyFilesystemStorage configures filesystem storage from URL
// Format: file:///path/to/data
func applyFilesystemStorage(raw string, c *ServerConfig) error {
	path := strings.TrimPrefix(raw, "file://")
	if path == "" {
		return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
	}

	c.StoreType = StoreFS
	c.FSBaseDir = path
	return nil
}

// applyS3Storage configures S3 storage from URL
// Format: s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true&prefix=docs
func applyS3Storage(raw string, c *ServerConfig) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}

	q := u.Query()
	s3 := c.S3
	s3.Bucket = u.Host
	s3.Region = firstNonEmpty(q.Get("region"), s3.Region, "us-east-1")
	s3.Endpoint = firstNonEmpty(q.Get("endpoint"), s3.Endpoint)
	s3.Prefix = firstNonEmpty(q.Get("prefix"), s3.Prefix)
	if v := q.Get("path_style"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid path_style in STORAGE_URL: %w", err)
		}
		s3.UsePathStyle = b
	}
	if v := q.Get("create_bucket"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid create_bucket in STORAGE_URL: %w", err)
		}
		s3.CreateBucketIfNotExist = b
	}

	// Check for AWS credentials in environment
	if accessKey, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok && accessKey != "" {
		s3.AccessKeyID = accessKey
	}
	if secretKey, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok && secretKey != "" {
		s3.SecretAccessKey = secretKey
	}
	if region, ok := os.LookupEnv("AWS_REGION"); ok && region != "" && q.Get("region") == "" {
		s3.Region = region
	}

	c.StoreType = StoreS3
	c.S3 = s3
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func parseBoolEnv(prefix, key string) (bool, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid boolean for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}
