package config

import (
	"testing"

	"github.com/tendant/course-content/pkg/coursecontent"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.StoreType != StoreMemory {
		t.Errorf("expected memory store, got: %s", cfg.StoreType)
	}
	if cfg.DeleteMode != coursecontent.DeleteModeLegacy {
		t.Errorf("expected legacy delete mode, got: %s", cfg.DeleteMode)
	}
	if cfg.Concurrency != coursecontent.ConcurrencyLastWriterWins {
		t.Errorf("expected last-writer-wins, got: %s", cfg.Concurrency)
	}
	if cfg.DBSchema != "content" {
		t.Errorf("expected schema content, got: %s", cfg.DBSchema)
	}
}

func TestWithPort(t *testing.T) {
	cfg, err := Load(WithPort("9090"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got: %s", cfg.Port)
	}
}

func TestWithPortEmpty(t *testing.T) {
	_, err := Load(WithPort(""))
	if err == nil {
		t.Error("expected error for empty port, got nil")
	}
}

func TestWithEnvironment(t *testing.T) {
	cfg, err := Load(WithEnvironment("production"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected environment production, got: %s", cfg.Environment)
	}
}

func TestWithDatabase(t *testing.T) {
	tests := []struct {
		name      string
		dbType    string
		url       string
		wantError bool
	}{
		{"memory valid", "memory", "", false},
		{"postgres valid", "postgres", "postgresql://localhost/test", false},
		{"redis valid", "redis", "redis://localhost:6379", false},
		{"postgres missing url", "postgres", "", true},
		{"redis missing url", "redis", "", true},
		{"invalid type", "mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithDatabase(tt.dbType, tt.url))
			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if cfg.StoreType != tt.dbType {
				t.Errorf("expected store type %s, got: %s", tt.dbType, cfg.StoreType)
			}
			if cfg.DatabaseURL != tt.url {
				t.Errorf("expected URL %s, got: %s", tt.url, cfg.DatabaseURL)
			}
		})
	}
}

func TestWithFilesystemStore(t *testing.T) {
	cfg, err := Load(WithFilesystemStore("/tmp/content"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.StoreType != StoreFS || cfg.FSBaseDir != "/tmp/content" {
		t.Errorf("expected fs store at /tmp/content, got: %s %s", cfg.StoreType, cfg.FSBaseDir)
	}

	if _, err := Load(WithFilesystemStore("")); err == nil {
		t.Error("expected error for empty base dir, got nil")
	}
}

func TestWithS3Store(t *testing.T) {
	cfg, err := Load(
		WithS3Store("course-docs", ""),
		WithS3Credentials("key", "secret"),
		WithS3Endpoint("http://localhost:9000", true),
		WithS3Prefix("docs"),
		WithS3Encryption("aws:kms", "key-id"),
		WithS3CreateBucket(true),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	s3 := cfg.S3
	if cfg.StoreType != StoreS3 {
		t.Errorf("expected s3 store, got: %s", cfg.StoreType)
	}
	if s3.Bucket != "course-docs" || s3.Region != "us-east-1" {
		t.Errorf("unexpected bucket/region: %s %s", s3.Bucket, s3.Region)
	}
	if s3.AccessKeyID != "key" || s3.SecretAccessKey != "secret" {
		t.Error("expected static credentials")
	}
	if s3.Endpoint != "http://localhost:9000" || !s3.UsePathStyle {
		t.Error("expected custom endpoint with path style")
	}
	if s3.Prefix != "docs" {
		t.Errorf("expected prefix docs, got: %s", s3.Prefix)
	}
	if !s3.EnableSSE || s3.SSEAlgorithm != "aws:kms" || s3.SSEKMSKeyID != "key-id" {
		t.Error("expected aws:kms encryption")
	}
	if !s3.CreateBucketIfNotExist {
		t.Error("expected create bucket flag")
	}
}

func TestWithS3Errors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty bucket", WithS3Store("", "us-east-1")},
		{"missing secret", WithS3Credentials("key", "")},
		{"empty endpoint", WithS3Endpoint("", false)},
		{"bad algorithm", WithS3Encryption("DES", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.opt); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWithDeleteMode(t *testing.T) {
	cfg, err := Load(WithDeleteMode(coursecontent.DeleteModeItemOnly))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.DeleteMode != coursecontent.DeleteModeItemOnly {
		t.Errorf("expected item-only, got: %s", cfg.DeleteMode)
	}

	if _, err := Load(WithDeleteMode("soft")); err == nil {
		t.Error("expected error for unknown delete mode, got nil")
	}
}

func TestWithConcurrency(t *testing.T) {
	cfg, err := Load(WithConcurrency(coursecontent.ConcurrencyOptimistic))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Concurrency != coursecontent.ConcurrencyOptimistic {
		t.Errorf("expected optimistic, got: %s", cfg.Concurrency)
	}

	if _, err := Load(WithConcurrency("pessimistic")); err == nil {
		t.Error("expected error for unknown concurrency mode, got nil")
	}
}

func TestOptimisticRejectedForS3(t *testing.T) {
	_, err := Load(WithS3Store("course-docs", "us-east-1"), WithConcurrency(coursecontent.ConcurrencyOptimistic))
	if err == nil {
		t.Error("expected error for optimistic concurrency on s3, got nil")
	}
}

func TestWithEventLogging(t *testing.T) {
	cfg, err := Load(WithEventLogging(false))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.EnableEventLogging {
		t.Error("expected event logging disabled")
	}
}

func TestNilOptionIgnored(t *testing.T) {
	if _, err := Load(nil, WithPort("8081")); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestBuildServiceMemory(t *testing.T) {
	cfg, err := Load(WithDeleteMode(coursecontent.DeleteModeItemOnly))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	svc, err := cfg.BuildService()
	if err != nil {
		t.Fatalf("expected no error building service, got: %v", err)
	}
	if svc == nil {
		t.Fatal("expected service")
	}
}

func TestBuildServiceFilesystem(t *testing.T) {
	cfg, err := Load(WithFilesystemStore(t.TempDir()), WithConcurrency(coursecontent.ConcurrencyOptimistic))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if _, err := cfg.BuildServiceWithLogger(nil); err != nil {
		t.Fatalf("expected no error building service, got: %v", err)
	}
}
