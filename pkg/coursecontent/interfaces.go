package coursecontent

import (
	"context"
)

// Fields is the generic field map a DocumentStore persists for a document.
type Fields map[string]any

// Snapshot is the result of reading one document.
type Snapshot struct {
	Exists   bool
	Fields   Fields
	Revision int64
}

// Record is one document returned by ListAll.
type Record struct {
	ID       string
	Fields   Fields
	Revision int64
}

// DocumentStore is the persistence contract the service consumes: per-document
// reads and writes under a content collection, nothing more.
type DocumentStore interface {
	// Get reads a document. A missing document is not an error.
	Get(ctx context.Context, path ContentPath, id string) (Snapshot, error)

	// Update merges fields into an existing document. Returns
	// ErrContentNotFound when the document does not exist.
	Update(ctx context.Context, path ContentPath, id string, fields Fields) error

	// Create writes the full document, replacing any previous one.
	Create(ctx context.Context, path ContentPath, id string, fields Fields) error

	// GenerateID returns a new, unused document id.
	GenerateID(ctx context.Context, path ContentPath) (string, error)

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, path ContentPath, id string) error

	// ListAll returns every document in the collection.
	ListAll(ctx context.Context, path ContentPath) ([]Record, error)
}

// RevisionStore is implemented by stores that can make an update conditional
// on the revision observed by Get.
type RevisionStore interface {
	DocumentStore

	// UpdateIfRevision merges fields only when the stored revision equals
	// revision; otherwise it returns an error matching ErrConflict.
	UpdateIfRevision(ctx context.Context, path ContentPath, id string, revision int64, fields Fields) error
}

// EventSink receives notifications after successful writes.
type EventSink interface {
	// ContentCreated is fired when a document is created
	ContentCreated(ctx context.Context, path ContentPath, doc *ContentDocument) error

	// ContentUpdated is fired when a document's items or metadata change
	ContentUpdated(ctx context.Context, path ContentPath, doc *ContentDocument) error

	// ContentDeleted is fired when a whole document is deleted
	ContentDeleted(ctx context.Context, path ContentPath, id string) error
}
