package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/course-content/pkg/coursecontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements coursecontent.RevisionStore on the content_document table.
// Tables are referenced unqualified; the pool's search_path selects the schema.
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL document store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL document store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Error handling helper
func (s *Store) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "content_document") {
				return fmt.Errorf("content document already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("invalid document fields in %s: %s", operation, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (s *Store) Get(ctx context.Context, path coursecontent.ContentPath, id string) (coursecontent.Snapshot, error) {
	query := `SELECT fields, revision FROM content_document WHERE path = $1 AND id = $2`

	var snap coursecontent.Snapshot
	err := s.db.QueryRow(ctx, query, path.String(), id).Scan(&snap.Fields, &snap.Revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coursecontent.Snapshot{}, nil
		}
		return coursecontent.Snapshot{}, s.handlePostgresError("get content document", err)
	}
	snap.Exists = true
	return snap, nil
}

// Update merges the top-level keys of fields into the stored jsonb object.
func (s *Store) Update(ctx context.Context, path coursecontent.ContentPath, id string, fields coursecontent.Fields) error {
	query := `
		UPDATE content_document SET
			fields = fields || $3::jsonb,
			revision = revision + 1,
			updated_at = now()
		WHERE path = $1 AND id = $2`

	tag, err := s.db.Exec(ctx, query, path.String(), id, fields)
	if err != nil {
		return s.handlePostgresError("update content document", err)
	}
	if tag.RowsAffected() == 0 {
		return coursecontent.ErrContentNotFound
	}
	return nil
}

func (s *Store) UpdateIfRevision(ctx context.Context, path coursecontent.ContentPath, id string, revision int64, fields coursecontent.Fields) error {
	query := `
		UPDATE content_document SET
			fields = fields || $4::jsonb,
			revision = revision + 1,
			updated_at = now()
		WHERE path = $1 AND id = $2 AND revision = $3`

	tag, err := s.db.Exec(ctx, query, path.String(), id, revision, fields)
	if err != nil {
		return s.handlePostgresError("update content document", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or another writer got there first.
	var current int64
	err = s.db.QueryRow(ctx, `SELECT revision FROM content_document WHERE path = $1 AND id = $2`,
		path.String(), id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coursecontent.ErrContentNotFound
		}
		return s.handlePostgresError("read content revision", err)
	}
	return &coursecontent.ConflictError{ContentID: id, Expected: revision, Current: current}
}

func (s *Store) Create(ctx context.Context, path coursecontent.ContentPath, id string, fields coursecontent.Fields) error {
	query := `
		INSERT INTO content_document (path, id, fields, revision, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, 1, now(), now())
		ON CONFLICT (path, id) DO UPDATE SET
			fields = EXCLUDED.fields,
			revision = content_document.revision + 1,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.db.Exec(ctx, query, path.String(), id, fields); err != nil {
		return s.handlePostgresError("create content document", err)
	}
	return nil
}

func (s *Store) GenerateID(ctx context.Context, path coursecontent.ContentPath) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) Delete(ctx context.Context, path coursecontent.ContentPath, id string) error {
	query := `DELETE FROM content_document WHERE path = $1 AND id = $2`
	if _, err := s.db.Exec(ctx, query, path.String(), id); err != nil {
		return s.handlePostgresError("delete content document", err)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context, path coursecontent.ContentPath) ([]coursecontent.Record, error) {
	query := `
		SELECT id, fields, revision
		FROM content_document WHERE path = $1
		ORDER BY id`

	rows, err := s.db.Query(ctx, query, path.String())
	if err != nil {
		return nil, s.handlePostgresError("list content documents", err)
	}
	defer rows.Close()

	var records []coursecontent.Record
	for rows.Next() {
		var rec coursecontent.Record
		if err := rows.Scan(&rec.ID, &rec.Fields, &rec.Revision); err != nil {
			return nil, s.handlePostgresError("scan content document", err)
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, s.handlePostgresError("iterate content document rows", err)
	}

	return records, nil
}

var _ coursecontent.RevisionStore = (*Store)(nil)
