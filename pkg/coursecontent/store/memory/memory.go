package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/course-content/pkg/coursecontent"
)

type entry struct {
	fields   coursecontent.Fields
	revision int64
}

// Store implements coursecontent.RevisionStore using in-memory maps
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*entry // collection path -> id -> entry
}

// New creates a new in-memory document store
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]*entry),
	}
}

func (s *Store) lookup(path coursecontent.ContentPath, id string) (*entry, bool) {
	docs, ok := s.collections[path.String()]
	if !ok {
		return nil, false
	}
	e, ok := docs[id]
	return e, ok
}

func (s *Store) Get(ctx context.Context, path coursecontent.ContentPath, id string) (coursecontent.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(path, id)
	if !ok {
		return coursecontent.Snapshot{}, nil
	}
	// Return a copy to prevent external modifications
	return coursecontent.Snapshot{Exists: true, Fields: e.fields.Clone(), Revision: e.revision}, nil
}

func (s *Store) Update(ctx context.Context, path coursecontent.ContentPath, id string, fields coursecontent.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(path, id)
	if !ok {
		return coursecontent.ErrContentNotFound
	}
	e.fields = e.fields.Merge(fields)
	e.revision++
	return nil
}

func (s *Store) UpdateIfRevision(ctx context.Context, path coursecontent.ContentPath, id string, revision int64, fields coursecontent.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(path, id)
	if !ok {
		return coursecontent.ErrContentNotFound
	}
	if e.revision != revision {
		return &coursecontent.ConflictError{ContentID: id, Expected: revision, Current: e.revision}
	}
	e.fields = e.fields.Merge(fields)
	e.revision++
	return nil
}

func (s *Store) Create(ctx context.Context, path coursecontent.ContentPath, id string, fields coursecontent.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := path.String()
	docs, ok := s.collections[key]
	if !ok {
		docs = make(map[string]*entry)
		s.collections[key] = docs
	}
	var revision int64 = 1
	if prev, exists := docs[id]; exists {
		revision = prev.revision + 1
	}
	docs[id] = &entry{fields: fields.Clone(), revision: revision}
	return nil
}

func (s *Store) GenerateID(ctx context.Context, path coursecontent.ContentPath) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) Delete(ctx context.Context, path coursecontent.ContentPath, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := path.String()
	if docs, ok := s.collections[key]; ok {
		delete(docs, id)
		if len(docs) == 0 {
			delete(s.collections, key)
		}
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context, path coursecontent.ContentPath) ([]coursecontent.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[path.String()]
	records := make([]coursecontent.Record, 0, len(docs))
	for id, e := range docs {
		records = append(records, coursecontent.Record{ID: id, Fields: e.fields.Clone(), Revision: e.revision})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	return records, nil
}

var _ coursecontent.RevisionStore = (*Store)(nil)
