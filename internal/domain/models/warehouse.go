package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Warehouse movement directions and categories.
const (
	MovementInbound  = "inbound"
	MovementOutbound = "outbound"

	MovementCash    = "cash"
	MovementProduct = "product"
)

// WarehouseMovement records goods or cash entering or leaving a branch store.
// Balances are never stored; they are summed from non-deleted movements.
type WarehouseMovement struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type      string              `bson:"type" json:"type"`
	Category  string              `bson:"category" json:"category"`
	ItemName  string              `bson:"item_name,omitempty" json:"item_name,omitempty"` // normalized key
	ItemLabel string              `bson:"item_label,omitempty" json:"item_label,omitempty"`
	Quantity  float64             `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Value     float64             `bson:"value,omitempty" json:"value,omitempty"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Date      time.Time           `bson:"date" json:"date"`
	BranchID  *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}
