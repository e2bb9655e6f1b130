package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Initiative statuses.
const (
	InitiativePlanned   = "planned"
	InitiativeActive    = "active"
	InitiativeCompleted = "completed"
)

// Initiative is a charity program run by a branch. When a superadmin creates
// one without naming a branch, a copy is made for every active branch and the
// copies share FanOutID.
type Initiative struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	NameCI      string              `bson:"name_ci" json:"-"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Status      string              `bson:"status" json:"status"`
	BranchID    *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`
	FanOutID    *primitive.ObjectID `bson:"fan_out_id,omitempty" json:"fan_out_id,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
