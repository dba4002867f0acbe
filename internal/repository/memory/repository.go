package memory

import (
	"context"
	"maps"
	"reflect"
	"sync"
	"time"

	"libraryapi/internal/model"
	"libraryapi/internal/repository"
)

// Repository keeps documents in process memory as wire-named field maps.
// It enforces the same schema rules as the database backends and is used
// for local runs (STORAGE_DRIVER=memory) and tests.
type Repository[T any, P any] struct {
	schema   model.Schema[T, P]
	validate *repository.Validator
	now      func() time.Time

	mu    sync.RWMutex
	order []string
	docs  map[string]map[string]any
}

var _ repository.Repository[model.Book, model.BookPatch] = (*Repository[model.Book, model.BookPatch])(nil)

func NewRepository[T any, P any](schema model.Schema[T, P], v *repository.Validator) *Repository[T, P] {
	return &Repository[T, P]{
		schema:   schema,
		validate: v,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		docs:     make(map[string]map[string]any),
	}
}

func (r *Repository[T, P]) Create(_ context.Context, doc *T) (*T, error) {
	if err := r.validate.Struct(doc); err != nil {
		return nil, err
	}
	r.schema.ApplyDefaults(doc, r.now())

	fields, err := repository.EncodeFields(doc)
	if err != nil {
		return nil, err
	}
	id := repository.NewID().Hex()
	fields[repository.IDField] = id

	r.mu.Lock()
	defer r.mu.Unlock()
	if dup := r.conflicts("", fields); len(dup) > 0 {
		return nil, repository.Duplicate(dup...)
	}
	r.docs[id] = fields
	r.order = append(r.order, id)

	return decode[T](fields)
}

func (r *Repository[T, P]) List(_ context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]T, 0, len(r.order))
	for _, id := range r.order {
		item, err := decode[T](r.docs[id])
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (r *Repository[T, P]) FindByID(_ context.Context, id string) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return decode[T](fields)
}

func (r *Repository[T, P]) UpdateByID(ctx context.Context, id string, patch *P) (*T, error) {
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

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	merged := maps.Clone(current)
	maps.Copy(merged, set)
	if dup := r.conflicts(id, merged); len(dup) > 0 {
		return nil, repository.Duplicate(dup...)
	}
	r.docs[id] = merged

	return decode[T](merged)
}

func (r *Repository[T, P]) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.docs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// conflicts reports the unique fields of fields already held by another record.
// Callers must hold mu.
func (r *Repository[T, P]) conflicts(self string, fields map[string]any) []string {
	var dup []string
	for _, key := range r.schema.Unique {
		want, ok := fields[key]
		if !ok {
			continue
		}
		for id, other := range r.docs {
			if id != self && reflect.DeepEqual(other[key], want) {
				dup = append(dup, key)
				break
			}
		}
	}
	return dup
}

func decode[T any](fields map[string]any) (*T, error) {
	var out T
	if err := repository.DecodeFields(fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
