package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/course-content/pkg/coursecontent"
)

const fileExt = ".json"

// Store is a filesystem implementation of coursecontent.RevisionStore. Each
// document is one JSON file at <BaseDir>/<content path>/<id>.json.
// Revision checks are only safe while a single process owns BaseDir.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// Config options for the filesystem store
type Config struct {
	BaseDir string // Base directory for storing documents
}

// document is the on-disk form of a document.
type document struct {
	Revision int64                `json:"revision"`
	Fields   coursecontent.Fields `json:"fields"`
}

// New creates a new filesystem document store
func New(config Config) (*Store, error) {
	// Validate and create base directory if it doesn't exist
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{baseDir: filepath.Clean(config.BaseDir)}, nil
}

func (s *Store) collectionDir(path coursecontent.ContentPath) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(path.String()))
}

func (s *Store) filePath(path coursecontent.ContentPath, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid document id %q", id)
	}
	return filepath.Join(s.collectionDir(path), id+fileExt), nil
}

func (s *Store) read(path coursecontent.ContentPath, id string) (*document, error) {
	fp, err := s.filePath(path, id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(fp)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc, nil
}

// write replaces the file atomically through a temporary file.
func (s *Store) write(path coursecontent.ContentPath, id string, doc *document) error {
	fp, err := s.filePath(path, id)
	if err != nil {
		return err
	}

	// Create directory structure if it doesn't exist
	dir := filepath.Dir(fp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fp); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path coursecontent.ContentPath, id string) (coursecontent.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read(path, id)
	if err != nil || doc == nil {
		return coursecontent.Snapshot{}, err
	}
	return coursecontent.Snapshot{Exists: true, Fields: doc.Fields, Revision: doc.Revision}, nil
}

func (s *Store) Update(ctx context.Context, path coursecontent.ContentPath, id string, fields coursecontent.Fields) error {
	return s.update(path, id, nil, fields)
}

func (s *Store) UpdateIfRevision(ctx context.Context, path coursecontent.ContentPath, id string, revision int64, fields coursecontent.Fields) error {
	return s.update(path, id, &revision, fields)
}

func (s *Store) update(path coursecontent.ContentPath, id string, expected *int64, fields coursecontent.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(path, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return coursecontent.ErrContentNotFound
	}
	if expected != nil && *expected != doc.Revision {
		return &coursecontent.ConflictError{ContentID: id, Expected: *expected, Current: doc.Revision}
	}
	doc.Fields = doc.Fields.Merge(fields)
	doc.Revision++
	return s.write(path, id, doc)
}

func (s *Store) Create(ctx context.Context, path coursecontent.ContentPath, id string, fields coursecontent.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.read(path, id)
	if err != nil {
		return err
	}
	doc := &document{Revision: 1, Fields: fields}
	if prev != nil {
		doc.Revision = prev.Revision + 1
	}
	return s.write(path, id, doc)
}

func (s *Store) GenerateID(ctx context.Context, path coursecontent.ContentPath) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) Delete(ctx context.Context, path coursecontent.ContentPath, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, err := s.filePath(path, id)
	if err != nil {
		return err
	}
	if err := os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Clean up empty directories
	s.cleanupEmptyDirectories(filepath.Dir(fp))
	return nil
}

func (s *Store) ListAll(ctx context.Context, path coursecontent.ContentPath) ([]coursecontent.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.collectionDir(path))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var records []coursecontent.Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		doc, err := s.read(path, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			continue
		}
		records = append(records, coursecontent.Record{ID: id, Fields: doc.Fields, Revision: doc.Revision})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (s *Store) cleanupEmptyDirectories(dir string) {
	// Don't remove the base directory
	if dir == s.baseDir || !strings.HasPrefix(dir, s.baseDir) {
		return
	}

	// Check if directory is empty
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		// Remove empty directory
		if os.Remove(dir) == nil {
			// Recursively clean parent directory
			s.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}

var _ coursecontent.RevisionStore = (*Store)(nil)
