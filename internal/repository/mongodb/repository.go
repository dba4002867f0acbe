package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"libraryapi/internal/model"
	"libraryapi/internal/repository"
)

// Repository is a MongoDB implementation of repository.Repository.
// One instance serves one collection; it is safe for concurrent use.
type Repository[T any, P any] struct {
	coll     *mongo.Collection
	schema   model.Schema[T, P]
	validate *repository.Validator
	now      func() time.Time
}

var (
	_ repository.Repository[model.Book, model.BookPatch]     = (*Repository[model.Book, model.BookPatch])(nil)
	_ repository.Repository[model.Member, model.MemberPatch] = (*Repository[model.Member, model.MemberPatch])(nil)
	_ repository.Repository[model.Staff, model.StaffPatch]   = (*Repository[model.Staff, model.StaffPatch])(nil)
)

// NewRepository creates a repository over coll for the given schema.
func NewRepository[T any, P any](coll *mongo.Collection, schema model.Schema[T, P], v *repository.Validator) *Repository[T, P] {
	return &Repository[T, P]{
		coll:     coll,
		schema:   schema,
		validate: v,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique indexes declared by the schema.
func (r *Repository[T, P]) EnsureIndexes(ctx context.Context) error {
	if len(r.schema.Unique) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(r.schema.Unique))
	for _, field := range r.schema.Unique {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_unique"),
		})
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create %s indexes: %w", r.schema.Collection, err)
	}
	return nil
}

// Create inserts a new document under a freshly generated _id.
func (r *Repository[T, P]) Create(ctx context.Context, doc *T) (*T, error) {
	if err := r.validate.Struct(doc); err != nil {
		return nil, err
	}
	r.schema.ApplyDefaults(doc, r.now())

	fields, err := toD(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.schema.Collection, err)
	}
	stored := bson.D{{Key: "_id", Value: repository.NewID()}}
	for _, e := range fields {
		if e.Key != "_id" {
			stored = append(stored, e)
		}
	}

	if _, err := r.coll.InsertOne(ctx, stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.Duplicate(r.schema.Unique...)
		}
		return nil, fmt.Errorf("insert %s: %w", r.schema.Collection, err)
	}

	var out T
	if err := fromD(stored, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.schema.Collection, err)
	}
	return &out, nil
}

// List returns all documents in natural order.
func (r *Repository[T, P]) List(ctx context.Context) ([]T, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.schema.Collection, err)
	}
	defer cur.Close(ctx)

	items := make([]T, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("read %s cursor: %w", r.schema.Collection, err)
	}
	return items, nil
}

// FindByID fetches a single document by its _id.
func (r *Repository[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find %s %s: %w", r.schema.Collection, id, err)
	}
	return &out, nil
}

// UpdateByID applies patch with $set and returns the document after the update.
func (r *Repository[T, P]) UpdateByID(ctx context.Context, id string, patch *P) (*T, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	if err := r.validate.Struct(patch); err != nil {
		// An unknown id is reported before a bad patch.
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, err
	}
	set, err := toD(patch)
	if err != nil {
		return nil, fmt.Errorf("encode %s patch: %w", r.schema.Collection, err)
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out T
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&out)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, repository.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, repository.Duplicate(r.schema.Unique...)
		}
		return nil, fmt.Errorf("update %s %s: %w", r.schema.Collection, id, err)
	}
	return &out, nil
}

// DeleteByID removes a document by _id.
func (r *Repository[T, P]) DeleteByID(ctx context.Context, id string) error {
	oid, err := repository.ParseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", r.schema.Collection, id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func toD(v any) (bson.D, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func fromD(d bson.D, out any) error {
	raw, err := bson.Marshal(d)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}
