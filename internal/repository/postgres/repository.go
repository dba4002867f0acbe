package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"libraryapi/internal/model"
	"libraryapi/internal/repository"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Repository is a PostgreSQL implementation of repository.Repository.
// Each collection is a table of JSONB documents keyed by ObjectID hex strings,
// so records look the same on the wire as with the Mongo backend.
type Repository[T any, P any] struct {
	db       *sql.DB
	table    string
	schema   model.Schema[T, P]
	validate *repository.Validator
	now      func() time.Time
}

var (
	_ repository.Repository[model.Book, model.BookPatch]     = (*Repository[model.Book, model.BookPatch])(nil)
	_ repository.Repository[model.Member, model.MemberPatch] = (*Repository[model.Member, model.MemberPatch])(nil)
	_ repository.Repository[model.Staff, model.StaffPatch]   = (*Repository[model.Staff, model.StaffPatch])(nil)
)

// NewRepository creates a repository over the schema's table.
func NewRepository[T any, P any](db *sql.DB, schema model.Schema[T, P], v *repository.Validator) *Repository[T, P] {
	return &Repository[T, P]{
		db:       db,
		table:    pgx.Identifier{schema.Collection}.Sanitize(),
		schema:   schema,
		validate: v,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Create inserts a new document row and returns the stored record.
func (r *Repository[T, P]) Create(ctx context.Context, doc *T) (*T, error) {
	if err := r.validate.Struct(doc); err != nil {
		return nil, err
	}
	r.schema.ApplyDefaults(doc, r.now())

	fields, err := repository.EncodeFields(doc)
	if err != nil {
		return nil, err
	}
	delete(fields, repository.IDField)
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.schema.Collection, err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2) RETURNING id, doc`, r.table)
	row := r.db.QueryRowContext(ctx, q, repository.NewID().Hex(), string(body))
	out, err := r.scan(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.Duplicate(r.schema.Unique...)
		}
		return nil, fmt.Errorf("insert %s: %w", r.schema.Collection, err)
	}
	return out, nil
}

// List returns every document ordered by insertion time.
func (r *Repository[T, P]) List(ctx context.Context) ([]T, error) {
	q := fmt.Sprintf(`SELECT id, doc FROM %s ORDER BY created_at, id`, r.table)
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.schema.Collection, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		out, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", r.schema.Collection, err)
		}
		items = append(items, *out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.schema.Collection, err)
	}
	return items, nil
}

// FindByID fetches a single document by its id.
func (r *Repository[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	if _, err := repository.ParseID(id); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT id, doc FROM %s WHERE id = $1`, r.table)
	out, err := r.scan(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find %s %s: %w", r.schema.Collection, id, err)
	}
	return out, nil
}

// UpdateByID merges the patch into the stored JSONB document.
func (r *Repository[T, P]) UpdateByID(ctx context.Context, id string, patch *P) (*T, error) {
	if _, err := repository.ParseID(id); err != nil {
		return nil, err
	}
	if err := r.validate.Struct(patch); err != nil {
		// An unknown id is reported before a bad patch.
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, err
	}
	set, err := repository.EncodeFields(patch)
	if err != nil {
		return nil, err
	}
	delete(set, repository.IDField)
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}
	body, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("encode %s patch: %w", r.schema.Collection, err)
	}

	q := fmt.Sprintf(`UPDATE %s SET doc = doc || $2::jsonb WHERE id = $1 RETURNING id, doc`, r.table)
	out, err := r.scan(r.db.QueryRowContext(ctx, q, id, string(body)))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, repository.ErrNotFound
		case isUniqueViolation(err):
			return nil, repository.Duplicate(r.schema.Unique...)
		}
		return nil, fmt.Errorf("update %s %s: %w", r.schema.Collection, id, err)
	}
	return out, nil
}

// DeleteByID removes a document row. It returns ErrNotFound when no row matched.
func (r *Repository[T, P]) DeleteByID(ctx context.Context, id string) error {
	if _, err := repository.ParseID(id); err != nil {
		return err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", r.schema.Collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", r.schema.Collection, id, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository[T, P]) scan(s scanner) (*T, error) {
	var (
		id  string
		doc []byte
	)
	if err := s.Scan(&id, &doc); err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", r.schema.Collection, err)
	}
	// The id column is authoritative; it is never stored inside doc.
	idDoc := `{"` + repository.IDField + `":` + strconv.Quote(id) + `}`
	if err := json.Unmarshal([]byte(idDoc), &out); err != nil {
		return nil, fmt.Errorf("decode %s id: %w", r.schema.Collection, err)
	}
	return &out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
