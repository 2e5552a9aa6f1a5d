// Package storetest holds the behaviour every coursecontent.DocumentStore
// implementation is expected to share. Store packages run it from their own
// tests.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/course-content/pkg/coursecontent"
)

// NewPath returns a content path unique to the calling test, so suites can
// share a database or bucket.
func NewPath(t *testing.T) coursecontent.ContentPath {
	t.Helper()
	task, err := coursecontent.NewTaskPath("course-"+uuid.NewString(), "unit-1", "task-1")
	require.NoError(t, err)
	return task.Contents()
}

// Run exercises store against the DocumentStore contract, and the
// RevisionStore contract when store implements it.
func Run(t *testing.T, store coursecontent.DocumentStore) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, store) })
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, store) })
	t.Run("UpdateMerges", func(t *testing.T) { testUpdateMerges(t, store) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, store) })
	t.Run("ListAll", func(t *testing.T) { testListAll(t, store) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, store) })
	t.Run("GenerateID", func(t *testing.T) { testGenerateID(t, store) })
	t.Run("ServiceRoundTrip", func(t *testing.T) { testServiceRoundTrip(t, store) })

	if rs, ok := store.(coursecontent.RevisionStore); ok {
		t.Run("UpdateIfRevision", func(t *testing.T) { testUpdateIfRevision(t, rs) })
	}
}

func seed(t *testing.T, store coursecontent.DocumentStore, path coursecontent.ContentPath, id, name string) {
	t.Helper()
	err := store.Create(context.Background(), path, id, coursecontent.Fields{
		coursecontent.FieldContentType: "CARD",
		coursecontent.FieldContentNo:   1,
		coursecontent.FieldContentName: name,
		coursecontent.FieldContentData: []any{map[string]any{"position": 1, "title": "a"}},
	})
	require.NoError(t, err)
}

func testGetMissing(t *testing.T, store coursecontent.DocumentStore) {
	snap, err := store.Get(context.Background(), NewPath(t), "missing")
	require.NoError(t, err)
	assert.False(t, snap.Exists)
}

func testCreateAndGet(t *testing.T, store coursecontent.DocumentStore) {
	ctx := context.Background()
	path := NewPath(t)
	seed(t, store, path, "doc-1", "Shapes")

	snap, err := store.Get(ctx, path, "doc-1")
	require.NoError(t, err)
	require.True(t, snap.Exists)
	assert.Equal(t, "Shapes", snap.Fields[coursecontent.FieldContentName])
	assert.Equal(t, "CARD", snap.Fields[coursecontent.FieldContentType])
	assert.Len(t, snap.Fields[coursecontent.FieldContentData], 1)

	seed(t, store, path, "doc-1", "Replaced")
	snap, err = store.Get(ctx, path, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Replaced", snap.Fields[coursecontent.FieldContentName])
}

func testUpdateMerges(t *testing.T, store coursecontent.DocumentStore) {
	ctx := context.Background()
	path := NewPath(t)
	seed(t, store, path, "doc-1", "Before")

	before, err := store.Get(ctx, path, "doc-1")
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, path, "doc-1", coursecontent.Fields{
		coursecontent.FieldContentName: "After",
		coursecontent.FieldContentData: []any{},
	}))

	after, err := store.Get(ctx, path, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "After", after.Fields[coursecontent.FieldContentName])
	assert.Equal(t, "CARD", after.Fields[coursecontent.FieldContentType], "untouched fields are kept")
	assert.Empty(t, after.Fields[coursecontent.FieldContentData])
	assert.Greater(t, after.Revision, before.Revision)
}

func testUpdateMissing(t *testing.T, store coursecontent.DocumentStore) {
	err := store.Update(context.Background(), NewPath(t), "missing", coursecontent.Fields{coursecontent.FieldContentName: "x"})
	assert.ErrorIs(t, err, coursecontent.ErrContentNotFound)
}

func testListAll(t *testing.T, store coursecontent.DocumentStore) {
	ctx := context.Background()
	path, other := NewPath(t), NewPath(t)

	records, err := store.ListAll(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, records)

	seed(t, store, path, "doc-b", "B")
	seed(t, store, path, "doc-a", "A")
	seed(t, store, other, "doc-c", "C")

	records, err = store.ListAll(ctx, path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "doc-a", records[0].ID)
	assert.Equal(t, "A", records[0].Fields[coursecontent.FieldContentName])
	assert.Equal(t, "doc-b", records[1].ID)
}

func testDelete(t *testing.T, store coursecontent.DocumentStore) {
	ctx := context.Background()
	path := NewPath(t)
	seed(t, store, path, "doc-1", "Gone")

	require.NoError(t, store.Delete(ctx, path, "doc-1"))
	snap, err := store.Get(ctx, path, "doc-1")
	require.NoError(t, err)
	assert.False(t, snap.Exists)

	assert.NoError(t, store.Delete(ctx, path, "doc-1"), "deleting a missing document")

	records, err := store.ListAll(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testGenerateID(t *testing.T, store coursecontent.DocumentStore) {
	ctx := context.Background()
	path := NewPath(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := store.GenerateID(ctx, path)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func testUpdateIfRevision(t *testing.T, store coursecontent.RevisionStore) {
	ctx := context.Background()
	path := NewPath(t)
	seed(t, store, path, "doc-1", "v1")

	snap, err := store.Get(ctx, path, "doc-1")
	require.NoError(t, err)

	require.NoError(t, store.UpdateIfRevision(ctx, path, "doc-1", snap.Revision, coursecontent.Fields{coursecontent.FieldContentName: "v2"}))

	err = store.UpdateIfRevision(ctx, path, "doc-1", snap.Revision, coursecontent.Fields{coursecontent.FieldContentName: "stale"})
	require.ErrorIs(t, err, coursecontent.ErrConflict)

	var conflict *coursecontent.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, snap.Revision, conflict.Expected)
	assert.Greater(t, conflict.Current, snap.Revision)

	current, err := store.Get(ctx, path, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", current.Fields[coursecontent.FieldContentName])

	err = store.UpdateIfRevision(ctx, path, "missing", 1, coursecontent.Fields{coursecontent.FieldContentName: "x"})
	assert.ErrorIs(t, err, coursecontent.ErrContentNotFound)
}

// testServiceRoundTrip drives the service over store, so timestamps and
// positions go through the store's own encoding.
func testServiceRoundTrip(t *testing.T, store coursecontent.DocumentStore) {
	ctx := context.Background()
	path := NewPath(t)
	svc, err := coursecontent.New(coursecontent.WithStore(store))
	require.NoError(t, err)

	meta := coursecontent.Metadata{ContentType: "FLASHCARD", ContentNo: 1, ContentName: "Sums"}
	res, err := svc.AddItem(ctx, coursecontent.AddItemRequest{
		Path:     path,
		Item:     &coursecontent.Flashcard{Front: "1+1", Back: "2"},
		Metadata: meta,
	})
	require.NoError(t, err)
	assert.Equal(t, coursecontent.At(1), res.Position)

	res, err = svc.AddItem(ctx, coursecontent.AddItemRequest{
		Path:      path,
		ContentID: res.ContentID,
		Item:      &coursecontent.Flashcard{Front: "2+2", Back: "4"},
		Metadata:  meta,
	})
	require.NoError(t, err)
	assert.Equal(t, coursecontent.At(2), res.Position)

	view, err := svc.GetContent(ctx, path, res.ContentID)
	require.NoError(t, err)
	assert.Equal(t, coursecontent.ContentTypeFlashcard, view.ContentType)
	assert.NotEmpty(t, view.ContentCreateAt)
	assert.NotNil(t, view.ContentLastEditDate)
	require.Len(t, view.ContentData, 2)
	assert.Equal(t, "2+2", view.ContentData[1].(*coursecontent.Flashcard).Front)

	require.NoError(t, svc.RemoveItem(ctx, coursecontent.RemoveRequest{Path: path, ContentID: res.ContentID}))
	views, err := svc.ListContent(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, views)
}
