package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/tendant/course-content/pkg/coursecontent"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "coursecontent"

const maxTxRetries = 10

// Store implements coursecontent.RevisionStore on Redis. Each document is a
// JSON string key; each collection keeps a set of its document ids.
// Read-modify-write runs under WATCH so concurrent writers retry instead of
// overwriting each other.
type Store struct {
	rdb    *goredis.Client
	prefix string
}

type document struct {
	Revision int64                `json:"revision"`
	Fields   coursecontent.Fields `json:"fields"`
}

// New wraps an existing client.
func New(rdb *goredis.Client, prefix string) *Store {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// NewFromURL connects to the server named by a redis:// or rediss:// URL and
// verifies it answers PING.
func NewFromURL(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, prefix), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) docKey(path coursecontent.ContentPath, id string) string {
	return s.prefix + ":" + path.String() + ":" + id
}

func (s *Store) setKey(path coursecontent.ContentPath) string {
	return s.prefix + ":" + path.String()
}

func readDocument(ctx context.Context, c goredis.Cmdable, key string) (*document, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &doc, nil
}

func (s *Store) Get(ctx context.Context, path coursecontent.ContentPath, id string) (coursecontent.Snapshot, error) {
	doc, err := readDocument(ctx, s.rdb, s.docKey(path, id))
	if err != nil || doc == nil {
		return coursecontent.Snapshot{}, err
	}
	return coursecontent.Snapshot{Exists: true, Fields: doc.Fields, Revision: doc.Revision}, nil
}

func (s *Store) Update(ctx context.Context, path coursecontent.ContentPath, id string, fields coursecontent.Fields) error {
	return s.update(ctx, path, id, nil, fields)
}

func (s *Store) UpdateIfRevision(ctx context.Context, path coursecontent.ContentPath, id string, revision int64, fields coursecontent.Fields) error {
	return s.update(ctx, path, id, &revision, fields)
}

func (s *Store) update(ctx context.Context, path coursecontent.ContentPath, id string, expected *int64, fields coursecontent.Fields) error {
	key := s.docKey(path, id)
	return s.watch(ctx, key, func(tx *goredis.Tx) error {
		doc, err := readDocument(ctx, tx, key)
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
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	})
}

func (s *Store) Create(ctx context.Context, path coursecontent.ContentPath, id string, fields coursecontent.Fields) error {
	key := s.docKey(path, id)
	return s.watch(ctx, key, func(tx *goredis.Tx) error {
		prev, err := readDocument(ctx, tx, key)
		if err != nil {
			return err
		}
		doc := document{Revision: 1, Fields: fields}
		if prev != nil {
			doc.Revision = prev.Revision + 1
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			pipe.SAdd(ctx, s.setKey(path), id)
			return nil
		})
		return err
	})
}

// watch runs fn under WATCH key, retrying while another client modifies the
// key between the read and the EXEC.
func (s *Store) watch(ctx context.Context, key string, fn func(*goredis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, fn, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis transaction on %s: %w", key, goredis.TxFailedErr)
}

func (s *Store) GenerateID(ctx context.Context, path coursecontent.ContentPath) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) Delete(ctx context.Context, path coursecontent.ContentPath, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(path, id))
		pipe.SRem(ctx, s.setKey(path), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context, path coursecontent.ContentPath) ([]coursecontent.Record, error) {
	ids, err := s.rdb.SMembers(ctx, s.setKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(path, id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	records := make([]coursecontent.Record, 0, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// deleted between SMEMBERS and MGET
			continue
		}
		var doc document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		records = append(records, coursecontent.Record{ID: ids[i], Fields: doc.Fields, Revision: doc.Revision})
	}
	return records, nil
}

var _ coursecontent.RevisionStore = (*Store)(nil)
