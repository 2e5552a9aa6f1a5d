package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/course-content/pkg/coursecontent"
	"github.com/tendant/course-content/pkg/coursecontent/store/storetest"
)

func TestStore(t *testing.T) {
	s, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestDocumentLayout(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	s, err := New(Config{BaseDir: tmp})
	require.NoError(t, err)

	task, err := coursecontent.NewTaskPath("c1", "u1", "t1")
	require.NoError(t, err)
	path := task.Contents()

	require.NoError(t, s.Create(ctx, path, "doc-1", coursecontent.Fields{"contentName": "x"}))

	file := filepath.Join(tmp, "course", "c1", "unit", "u1", "task", "t1", "content", "doc-1.json")
	_, err = os.Stat(file)
	require.NoError(t, err)

	// Non-document files in the collection are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(file), "notes.txt"), []byte("x"), 0644))
	records, err := s.ListAll(ctx, path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(file), "notes.txt")))

	require.NoError(t, s.Delete(ctx, path, "doc-1"))
	_, err = os.Stat(filepath.Join(tmp, "course"))
	assert.True(t, os.IsNotExist(err), "empty directories are cleaned up")
	_, err = os.Stat(tmp)
	assert.NoError(t, err, "base directory is kept")
}

func TestRejectsUnsafeIDs(t *testing.T) {
	s, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	path := storetest.NewPath(t)

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		_, err := s.Get(context.Background(), path, id)
		assert.Error(t, err, "id %q", id)
	}
}
