package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	BookTypeFiction    = "fiction"
	BookTypeNonFiction = "non-fiction"
)

// Book is a catalogued title. YearPublished is a pointer so that year 0 is
// told apart from a missing value.
type Book struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title" validate:"required"`
	Author        string             `json:"author" bson:"author" validate:"required"`
	Genre         string             `json:"genre" bson:"genre" validate:"required"`
	YearPublished *int               `json:"yearPublished" bson:"yearPublished" validate:"required"`
	Type          string             `json:"type" bson:"type" validate:"required,oneof=fiction non-fiction"`
}

// BookPatch carries the fields of a partial book update. Nil fields are left untouched.
type BookPatch struct {
	Title         *string `json:"title,omitempty" bson:"title,omitempty" validate:"omitnil,min=1"`
	Author        *string `json:"author,omitempty" bson:"author,omitempty" validate:"omitnil,min=1"`
	Genre         *string `json:"genre,omitempty" bson:"genre,omitempty" validate:"omitnil,min=1"`
	YearPublished *int    `json:"yearPublished,omitempty" bson:"yearPublished,omitempty"`
	Type          *string `json:"type,omitempty" bson:"type,omitempty" validate:"omitnil,oneof=fiction non-fiction"`
}

var Books = Schema[Book, BookPatch]{
	Name:       "Book",
	Collection: "books",
}
