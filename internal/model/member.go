package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is a registered library patron. Email is unique across members.
type Member struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	Email          string             `json:"email" bson:"email" validate:"required"`
	MembershipDate time.Time          `json:"membershipDate" bson:"membershipDate"`
}

type MemberPatch struct {
	Name           *string    `json:"name,omitempty" bson:"name,omitempty" validate:"omitnil,min=1"`
	Email          *string    `json:"email,omitempty" bson:"email,omitempty" validate:"omitnil,min=1"`
	MembershipDate *time.Time `json:"membershipDate,omitempty" bson:"membershipDate,omitempty"`
}

var Members = Schema[Member, MemberPatch]{
	Name:       "Member",
	Collection: "members",
	Unique:     []string{"email"},
	Defaults: func(m *Member, now time.Time) {
		if m.MembershipDate.IsZero() {
			m.MembershipDate = now
		}
	},
}
