package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Staff is a library employee. Email is unique across staff.
type Staff struct {
	ID    primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name  string             `json:"name" bson:"name" validate:"required"`
	Role  string             `json:"role" bson:"role" validate:"required"`
	Email string             `json:"email" bson:"email" validate:"required"`
}

type StaffPatch struct {
	Name  *string `json:"name,omitempty" bson:"name,omitempty" validate:"omitnil,min=1"`
	Role  *string `json:"role,omitempty" bson:"role,omitempty" validate:"omitnil,min=1"`
	Email *string `json:"email,omitempty" bson:"email,omitempty" validate:"omitnil,min=1"`
}

var StaffMembers = Schema[Staff, StaffPatch]{
	Name:       "Staff member",
	Collection: "staff",
	Unique:     []string{"email"},
}
