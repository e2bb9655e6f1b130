package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product statuses.
const (
	ProductActive   = "active"
	ProductDepleted = "depleted"
	ProductArchived = "archived"
)

// Product operation types.
const (
	OpPurchase  = "purchase"
	OpExpense   = "expense"
	OpSale      = "sale"
	OpTransform = "transform"
	OpDonation  = "donation"
)

// Amount types on a product operation.
const (
	AmountCost    = "cost"
	AmountRevenue = "revenue"
)

// Product is an item produced or traded by a branch project.
//
// CurrentQuantity, TotalCost and TotalRevenue are running counters maintained
// only by applying and reversing ProductOperations. They are never edited
// directly and never go negative.
type Product struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name            string              `bson:"name" json:"name"`
	NameCI          string              `bson:"name_ci" json:"-"`
	Category        string              `bson:"category" json:"category"`
	Unit            string              `bson:"unit" json:"unit"`
	CurrentQuantity float64             `bson:"current_quantity" json:"current_quantity"`
	TotalCost       float64             `bson:"total_cost" json:"total_cost"`
	TotalRevenue    float64             `bson:"total_revenue" json:"total_revenue"`
	Status          string              `bson:"status" json:"status"`
	BranchID        *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// ProductOperation is an append-only, reversible entry in a product's log.
//
// A transform consumes Quantity of the product and, when TargetProductID is
// set, produces TargetQuantity of the target product.
type ProductOperation struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProductID       primitive.ObjectID  `bson:"product_id" json:"product_id"`
	Type            string              `bson:"type" json:"type"`
	Quantity        float64             `bson:"quantity" json:"quantity"`
	Amount          float64             `bson:"amount" json:"amount"`
	AmountType      string              `bson:"amount_type,omitempty" json:"amount_type,omitempty"`
	TargetProductID *primitive.ObjectID `bson:"target_product_id,omitempty" json:"target_product_id,omitempty"`
	TargetQuantity  float64             `bson:"target_quantity,omitempty" json:"target_quantity,omitempty"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Date            time.Time           `bson:"date" json:"date"`
	BranchID        *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`
	CorrelationID   string              `bson:"correlation_id" json:"correlation_id"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}
