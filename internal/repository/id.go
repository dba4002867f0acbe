package repository

import "go.mongodb.org/mongo-driver/bson/primitive"

// ParseID converts a wire identifier to an ObjectID.
// A malformed identifier can never resolve, so it is reported as ErrNotFound.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// NewID returns a fresh identifier for backends that do not assign one themselves.
func NewID() primitive.ObjectID {
	return primitive.NewObjectID()
}
