package s3

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/course-content/pkg/coursecontent"
	"github.com/tendant/course-content/pkg/coursecontent/store/storetest"
)

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket name is required")
}

func TestObjectKeys(t *testing.T) {
	s, err := New(Config{
		Bucket:          "test-bucket",
		Prefix:          "tenant-a",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
	})
	if err != nil {
		t.Skipf("s3 client unavailable: %v", err)
	}

	task, err := coursecontent.NewTaskPath("c1", "u1", "t1")
	require.NoError(t, err)
	path := task.Contents()

	key := s.objectKey(path, "doc-1")
	assert.Equal(t, "tenant-a/course/c1/unit/u1/task/t1/content/doc-1.json", key)

	id, ok := documentID(s.collectionPrefix(path), key)
	require.True(t, ok)
	assert.Equal(t, "doc-1", id)

	_, ok = documentID(s.collectionPrefix(path), s.collectionPrefix(path)+"notes.txt")
	assert.False(t, ok)
}

func TestHasErrorCode(t *testing.T) {
	err := fmt.Errorf("head bucket: %w", &smithy.GenericAPIError{Code: "BadRequest", Message: "bad"})
	assert.True(t, hasErrorCode(err, "NoSuchBucket", "BadRequest"))
	assert.False(t, hasErrorCode(err, "NoSuchKey"))
	assert.False(t, hasErrorCode(errors.New("BadRequest"), "BadRequest"))
}

// TestStore runs against an S3-compatible endpoint such as MinIO.
func TestStore(t *testing.T) {
	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_ENDPOINT not set")
	}
	s, err := New(Config{
		Region:                 "us-east-1",
		Bucket:                 envOr("S3_BUCKET", "course-content-test"),
		AccessKeyID:            envOr("S3_ACCESS_KEY_ID", "minioadmin"),
		SecretAccessKey:        envOr("S3_SECRET_ACCESS_KEY", "minioadmin"),
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err)
	storetest.Run(t, s)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
