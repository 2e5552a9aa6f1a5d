package coursecontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// DeleteMode selects what RemoveItem deletes.
type DeleteMode string

const (
	// DeleteModeLegacy removes the item at the given position and then
	// deletes the whole document regardless.
	DeleteModeLegacy DeleteMode = "legacy"

	// DeleteModeItemOnly deletes the whole document only when no position
	// is given.
	DeleteModeItemOnly DeleteMode = "item-only"
)

// ConcurrencyMode selects how the read-modify-write of a mutation is
// committed.
type ConcurrencyMode string

const (
	// ConcurrencyLastWriterWins writes unconditionally; a concurrent
	// mutation based on the same snapshot is silently overwritten.
	ConcurrencyLastWriterWins ConcurrencyMode = "last-writer-wins"

	// ConcurrencyOptimistic writes only if the document revision is
	// unchanged since the read, failing with ErrConflict otherwise.
	ConcurrencyOptimistic ConcurrencyMode = "optimistic"
)

// service implements the Service interface
type service struct {
	store       DocumentStore
	revisions   RevisionStore
	eventSink   EventSink
	logger      *slog.Logger
	now         func() time.Time
	deleteMode  DeleteMode
	concurrency ConcurrencyMode
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithStore sets the document store for the service
func WithStore(store DocumentStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithDeleteMode selects the RemoveItem behaviour
func WithDeleteMode(mode DeleteMode) Option {
	return func(s *service) {
		s.deleteMode = mode
	}
}

// WithConcurrency selects how mutations are committed
func WithConcurrency(mode ConcurrencyMode) Option {
	return func(s *service) {
		s.concurrency = mode
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink:   NewNoopEventSink(),
		logger:      slog.Default(),
		now:         time.Now,
		deleteMode:  DeleteModeLegacy,
		concurrency: ConcurrencyLastWriterWins,
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("document store is required")
	}

	switch s.deleteMode {
	case DeleteModeLegacy, DeleteModeItemOnly:
	default:
		return nil, fmt.Errorf("unsupported delete mode: %s", s.deleteMode)
	}

	switch s.concurrency {
	case ConcurrencyLastWriterWins:
	case ConcurrencyOptimistic:
		rs, ok := s.store.(RevisionStore)
		if !ok {
			return nil, fmt.Errorf("concurrency mode %s requires a store with revision support", s.concurrency)
		}
		s.revisions = rs
	default:
		return nil, fmt.Errorf("unsupported concurrency mode: %s", s.concurrency)
	}

	return s, nil
}

func (s *service) timestamp() time.Time {
	return s.now().UTC()
}

// Document access

// loadDocument reads and decodes one document; found is false when it does
// not exist.
func (s *service) loadDocument(ctx context.Context, op string, path ContentPath, id string) (*ContentDocument, bool, error) {
	if err := path.Validate(); err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, nil
	}
	snap, err := s.store.Get(ctx, path, id)
	if err != nil {
		return nil, false, systemError(op, path, id, err)
	}
	if !snap.Exists {
		return nil, false, nil
	}
	doc, err := DecodeDocument(id, snap.Fields, snap.Revision)
	if err != nil {
		return nil, false, systemError(op, path, id, err)
	}
	return doc, true, nil
}

// mutation edits doc in place and returns the fields to write back, or nil
// to skip the write.
type mutation func(doc *ContentDocument) (Fields, error)

// withDocument is the single read-modify-write seam for existing documents.
// The commit is unconditional or revision-checked depending on the
// configured ConcurrencyMode.
func (s *service) withDocument(ctx context.Context, op string, path ContentPath, id string, fn mutation) (*ContentDocument, error) {
	doc, found, err := s.loadDocument(ctx, op, path, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("content %s: %w", id, ErrContentNotFound)
	}

	patch, err := fn(doc)
	if err != nil || patch == nil {
		return doc, err
	}

	if s.concurrency == ConcurrencyOptimistic {
		err = s.revisions.UpdateIfRevision(ctx, path, id, doc.Revision, patch)
	} else {
		err = s.store.Update(ctx, path, id, patch)
	}
	if err != nil {
		s.logger.Error("Failed to write content", "op", op, "path", path.String(), "content_id", id, "error", err)
		return nil, systemError(op, path, id, err)
	}

	if err := s.eventSink.ContentUpdated(ctx, path, doc); err != nil {
		s.logger.Warn("Content event sink failed", "event", "updated", "content_id", id, "error", err)
	}
	return doc, nil
}

// create writes a brand-new document holding item, if any.
func (s *service) create(ctx context.Context, path ContentPath, item ContentItem, meta Metadata) (*ContentDocument, error) {
	t, err := ParseContentType(meta.ContentType)
	if err != nil {
		return nil, err
	}
	if item != nil && item.Type() != t {
		return nil, fmt.Errorf("%w: %s item in %s document", ErrTypeMismatch, item.Type(), t)
	}

	id, err := s.store.GenerateID(ctx, path)
	if err != nil {
		return nil, systemError("generate_id", path, "", err)
	}

	doc := &ContentDocument{
		ID:                 id,
		ContentType:        t,
		ContentNo:          meta.ContentNo,
		ContentName:        meta.ContentName,
		ContentDescription: meta.ContentDescription,
		ContentData:        []ContentItem{},
		ContentCreateAt:    s.timestamp(),
	}
	if item != nil {
		doc.ContentData = append(doc.ContentData, item)
	}

	fields, err := EncodeDocument(doc)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, path, id, fields); err != nil {
		s.logger.Error("Failed to create content", "path", path.String(), "content_id", id, "error", err)
		return nil, systemError("create", path, id, err)
	}

	if err := s.eventSink.ContentCreated(ctx, path, doc); err != nil {
		s.logger.Warn("Content event sink failed", "event", "created", "content_id", id, "error", err)
	}
	return doc, nil
}

// appendItem pushes item onto doc and returns the fields to write.
func (s *service) appendItem(doc *ContentDocument, item ContentItem) (Fields, error) {
	if item.Type() != doc.ContentType {
		return nil, fmt.Errorf("%w: %s item in %s document", ErrTypeMismatch, item.Type(), doc.ContentType)
	}
	doc.ContentData = append(doc.ContentData, item)
	now := s.timestamp()
	doc.ContentLastEditDate = &now

	items, err := encodeItems(doc.ContentData)
	if err != nil {
		return nil, err
	}
	return Fields{
		FieldContentData:         items,
		FieldContentLastEditDate: now,
	}, nil
}

// replaceItem swaps the item(s) at original for item and applies the
// editable metadata. ContentType and ContentCreateAt are written back from
// the snapshot unchanged.
func (s *service) replaceItem(doc *ContentDocument, item ContentItem, original Position, meta Metadata) (Fields, error) {
	if item != nil {
		if item.Type() != doc.ContentType {
			return nil, fmt.Errorf("%w: %s item in %s document", ErrTypeMismatch, item.Type(), doc.ContentType)
		}
		for i, existing := range doc.ContentData {
			if existing.ItemPosition().Equal(original) {
				doc.ContentData[i] = item
			}
		}
	}
	doc.ContentName = meta.ContentName
	doc.ContentDescription = meta.ContentDescription
	doc.ContentNo = meta.ContentNo
	now := s.timestamp()
	doc.ContentLastEditDate = &now

	items, err := encodeItems(doc.ContentData)
	if err != nil {
		return nil, err
	}
	return Fields{
		FieldContentType:         string(doc.ContentType),
		FieldContentName:         doc.ContentName,
		FieldContentDescription:  doc.ContentDescription,
		FieldContentNo:           doc.ContentNo,
		FieldContentData:         items,
		FieldContentCreateAt:     doc.ContentCreateAt,
		FieldContentLastEditDate: now,
	}, nil
}

// Document mutations

func (s *service) AppendOrCreate(ctx context.Context, req AppendRequest) (string, error) {
	if err := req.Path.Validate(); err != nil {
		return "", err
	}

	if req.ContentID == "" {
		doc, err := s.create(ctx, req.Path, req.Item, req.Metadata)
		if err != nil {
			return "", err
		}
		return doc.ID, nil
	}

	if req.Item == nil {
		return req.ContentID, nil
	}

	_, err := s.withDocument(ctx, "append", req.Path, req.ContentID, func(doc *ContentDocument) (Fields, error) {
		return s.appendItem(doc, req.Item)
	})
	if err != nil {
		return "", err
	}
	return req.ContentID, nil
}

func (s *service) ReplaceItem(ctx context.Context, req ReplaceRequest) error {
	_, err := s.withDocument(ctx, "replace", req.Path, req.ContentID, func(doc *ContentDocument) (Fields, error) {
		return s.replaceItem(doc, req.Item, req.OriginalPosition, req.Metadata)
	})
	return err
}

func (s *service) RemoveItem(ctx context.Context, req RemoveRequest) error {
	if err := req.Path.Validate(); err != nil {
		return err
	}
	if req.ContentID == "" {
		return fmt.Errorf("content id is required: %w", ErrContentNotFound)
	}

	if req.Position.IsSet() {
		_, err := s.withDocument(ctx, "remove_item", req.Path, req.ContentID, func(doc *ContentDocument) (Fields, error) {
			kept := make([]ContentItem, 0, len(doc.ContentData))
			for _, item := range doc.ContentData {
				if !item.ItemPosition().Equal(req.Position) {
					kept = append(kept, item)
				}
			}
			if len(kept) == len(doc.ContentData) {
				return nil, nil
			}
			doc.ContentData = kept
			now := s.timestamp()
			doc.ContentLastEditDate = &now

			items, err := encodeItems(kept)
			if err != nil {
				return nil, err
			}
			return Fields{
				FieldContentData:         items,
				FieldContentLastEditDate: now,
			}, nil
		})
		if err != nil && !errors.Is(err, ErrContentNotFound) {
			return err
		}
		if s.deleteMode == DeleteModeItemOnly {
			return nil
		}
	}

	if err := s.store.Delete(ctx, req.Path, req.ContentID); err != nil {
		s.logger.Error("Failed to delete content", "path", req.Path.String(), "content_id", req.ContentID, "error", err)
		return systemError("delete", req.Path, req.ContentID, err)
	}
	if err := s.eventSink.ContentDeleted(ctx, req.Path, req.ContentID); err != nil {
		s.logger.Warn("Content event sink failed", "event", "deleted", "content_id", req.ContentID, "error", err)
	}
	return nil
}

// Guarded item operations

func (s *service) AddItem(ctx context.Context, req AddItemRequest) (*AddItemResult, error) {
	if err := req.Path.Validate(); err != nil {
		return nil, err
	}
	if req.Item == nil {
		return nil, ErrItemRequired
	}

	if req.ContentID == "" {
		pos, err := SuggestOrValidatePosition(nil, req.Item.ItemPosition())
		if err != nil {
			return nil, err
		}
		doc, err := s.create(ctx, req.Path, req.Item.WithPosition(pos), req.Metadata)
		if err != nil {
			return nil, err
		}
		return &AddItemResult{ContentID: doc.ID, Position: pos}, nil
	}

	var pos Position
	_, err := s.withDocument(ctx, "add_item", req.Path, req.ContentID, func(doc *ContentDocument) (Fields, error) {
		if !ConfirmDocumentType(doc, req.Metadata.ContentNo, req.Metadata.ContentType) {
			return nil, fmt.Errorf("%w: document %s is %s #%d", ErrTypeMismatch, doc.ID, doc.ContentType, doc.ContentNo)
		}
		var err error
		pos, err = SuggestOrValidatePosition(doc.ContentData, req.Item.ItemPosition())
		if err != nil {
			return nil, err
		}
		return s.appendItem(doc, req.Item.WithPosition(pos))
	})
	if err != nil {
		return nil, err
	}
	return &AddItemResult{ContentID: req.ContentID, Position: pos}, nil
}

func (s *service) EditItem(ctx context.Context, req EditItemRequest) (Position, error) {
	if req.Item == nil {
		return NoPosition, ErrItemRequired
	}

	var pos Position
	_, err := s.withDocument(ctx, "edit_item", req.Path, req.ContentID, func(doc *ContentDocument) (Fields, error) {
		t, err := ParseContentType(req.Metadata.ContentType)
		if err != nil {
			return nil, err
		}
		if !ConfirmItemExists(doc, string(t), req.PreviousPosition) {
			if doc.ContentType != t {
				return nil, fmt.Errorf("%w: document %s is %s", ErrTypeMismatch, doc.ID, doc.ContentType)
			}
			return nil, fmt.Errorf("%w: no item at position %s", ErrItemNotFound, req.PreviousPosition)
		}
		if !ConfirmDocumentType(doc, req.Metadata.ContentNo, req.Metadata.ContentType) {
			return nil, fmt.Errorf("%w: document %s is %s #%d", ErrTypeMismatch, doc.ID, doc.ContentType, doc.ContentNo)
		}
		pos, err = ValidateEditPosition(doc.ContentData, req.PreviousPosition, req.Item.ItemPosition())
		if err != nil {
			return nil, err
		}
		return s.replaceItem(doc, req.Item.WithPosition(pos), req.PreviousPosition, req.Metadata)
	})
	if err != nil {
		return NoPosition, err
	}
	return pos, nil
}

// Position and type checks

func (s *service) SuggestPosition(ctx context.Context, path ContentPath, contentID string, requested Position) (Position, error) {
	doc, found, err := s.loadDocument(ctx, "suggest_position", path, contentID)
	if err != nil {
		return NoPosition, err
	}
	if !found {
		return SuggestOrValidatePosition(nil, requested)
	}
	return SuggestOrValidatePosition(doc.ContentData, requested)
}

func (s *service) CheckEditPosition(ctx context.Context, path ContentPath, contentID string, previous, next Position) (Position, error) {
	doc, found, err := s.loadDocument(ctx, "check_edit_position", path, contentID)
	if err != nil {
		return NoPosition, err
	}
	if !found {
		return NoPosition, fmt.Errorf("content %s: %w", contentID, ErrContentNotFound)
	}
	return ValidateEditPosition(doc.ContentData, previous, next)
}

func (s *service) CheckContentType(ctx context.Context, path ContentPath, contentID string, contentNo int, contentType string) (bool, error) {
	doc, found, err := s.loadDocument(ctx, "check_content_type", path, contentID)
	if err != nil || !found {
		return false, err
	}
	return ConfirmDocumentType(doc, contentNo, contentType), nil
}

func (s *service) CheckItemExists(ctx context.Context, path ContentPath, contentID string, contentType string, position Position) (bool, error) {
	doc, found, err := s.loadDocument(ctx, "check_item_exists", path, contentID)
	if err != nil || !found {
		return false, err
	}
	return ConfirmItemExists(doc, contentType, position), nil
}

// Reads

func (s *service) GetContent(ctx context.Context, path ContentPath, contentID string) (*ContentView, error) {
	doc, found, err := s.loadDocument(ctx, "get", path, contentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("content %s: %w", contentID, ErrContentNotFound)
	}
	return Project(doc), nil
}

func (s *service) ListContent(ctx context.Context, path ContentPath) ([]*ContentView, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	records, err := s.store.ListAll(ctx, path)
	if err != nil {
		s.logger.Error("Failed to list content", "path", path.String(), "error", err)
		return nil, systemError("list", path, "", err)
	}

	docs := make([]*ContentDocument, 0, len(records))
	for _, rec := range records {
		doc, err := DecodeDocument(rec.ID, rec.Fields, rec.Revision)
		if err != nil {
			s.logger.Error("Failed to decode content", "path", path.String(), "content_id", rec.ID, "error", err)
			return nil, systemError("list", path, rec.ID, err)
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].ContentNo != docs[j].ContentNo {
			return docs[i].ContentNo < docs[j].ContentNo
		}
		return docs[i].ID < docs[j].ID
	})

	views := make([]*ContentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, Project(doc))
	}
	return views, nil
}

func (s *service) LoadContent(ctx context.Context, path ContentPath, contentID string) ([]*ContentView, error) {
	if contentID == "" {
		return s.ListContent(ctx, path)
	}
	view, err := s.GetContent(ctx, path, contentID)
	if err != nil {
		return nil, err
	}
	return []*ContentView{view}, nil
}
