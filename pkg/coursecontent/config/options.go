package config

import (
	"fmt"

	"github.com/tendant/course-content/pkg/coursecontent"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithMemoryStore selects the in-memory document store
func WithMemoryStore() Option {
	return func(c *ServerConfig) error {
		c.StoreType = StoreMemory
		c.DatabaseURL = ""
		return nil
	}
}

// WithDatabase configures a database-backed document store
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		switch dbType {
		case StoreMemory:
			c.StoreType = StoreMemory
			c.DatabaseURL = ""
			return nil
		case StorePostgres, StoreRedis:
		default:
			return fmt.Errorf("database type must be 'memory', 'postgres' or 'redis', got: %s", dbType)
		}
		if url == "" {
			return fmt.Errorf("database URL is required for %s", dbType)
		}
		c.StoreType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithRedisPrefix sets the key prefix used by the redis store
func WithRedisPrefix(prefix string) Option {
	return func(c *ServerConfig) error {
		if prefix == "" {
			return fmt.Errorf("redis prefix cannot be empty")
		}
		c.RedisPrefix = prefix
		return nil
	}
}

// WithFilesystemStore selects the filesystem document store rooted at baseDir
func WithFilesystemStore(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.StoreType = StoreFS
		c.FSBaseDir = baseDir
		return nil
	}
}

// WithS3Store selects the S3 document store
func WithS3Store(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1" // Default region
		}
		c.StoreType = StoreS3
		c.S3.Bucket = bucket
		c.S3.Region = region
		return nil
	}
}

// WithS3Credentials sets static S3 credentials
func WithS3Credentials(accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if accessKeyID == "" || secretAccessKey == "" {
			return fmt.Errorf("both access key ID and secret access key are required")
		}
		c.S3.AccessKeyID = accessKeyID
		c.S3.SecretAccessKey = secretAccessKey
		return nil
	}
}

// WithS3Endpoint points the S3 store at an S3-compatible service such as MinIO
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if endpoint == "" {
			return fmt.Errorf("S3 endpoint cannot be empty")
		}
		c.S3.Endpoint = endpoint
		c.S3.UsePathStyle = usePathStyle
		return nil
	}
}

// WithS3Prefix sets the key prefix for S3 documents
func WithS3Prefix(prefix string) Option {
	return func(c *ServerConfig) error {
		c.S3.Prefix = prefix
		return nil
	}
}

// WithS3Encryption enables server-side encryption. kmsKeyID is only used with aws:kms.
func WithS3Encryption(algorithm, kmsKeyID string) Option {
	return func(c *ServerConfig) error {
		if algorithm != "AES256" && algorithm != "aws:kms" {
			return fmt.Errorf("SSE algorithm must be 'AES256' or 'aws:kms', got: %s", algorithm)
		}
		c.S3.EnableSSE = true
		c.S3.SSEAlgorithm = algorithm
		c.S3.SSEKMSKeyID = kmsKeyID
		return nil
	}
}

// WithS3CreateBucket creates the bucket on startup when it is missing
func WithS3CreateBucket(create bool) Option {
	return func(c *ServerConfig) error {
		c.S3.CreateBucketIfNotExist = create
		return nil
	}
}

// WithDeleteMode selects what a delete request removes
func WithDeleteMode(mode coursecontent.DeleteMode) Option {
	return func(c *ServerConfig) error {
		switch mode {
		case coursecontent.DeleteModeLegacy, coursecontent.DeleteModeItemOnly:
		default:
			return fmt.Errorf("unsupported delete mode: %s", mode)
		}
		c.DeleteMode = mode
		return nil
	}
}

// WithConcurrency selects how mutations are committed
func WithConcurrency(mode coursecontent.ConcurrencyMode) Option {
	return func(c *ServerConfig) error {
		switch mode {
		case coursecontent.ConcurrencyLastWriterWins, coursecontent.ConcurrencyOptimistic:
		default:
			return fmt.Errorf("unsupported concurrency mode: %s", mode)
		}
		c.Concurrency = mode
		return nil
	}
}

// WithEventLogging enables/disables event logging
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}
