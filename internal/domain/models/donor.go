package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donor is shared by every branch: a donor giving to two branches is one
// record. TotalDonated and DonationsCount are running totals kept in step
// with income transactions.
type Donor struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	NameNormalized   string             `bson:"name_normalized" json:"-"`
	Phone            string             `bson:"phone,omitempty" json:"phone,omitempty"`
	TotalDonated     float64            `bson:"total_donated" json:"total_donated"`
	DonationsCount   int64              `bson:"donations_count" json:"donations_count"`
	LastDonationDate *time.Time         `bson:"last_donation_date,omitempty" json:"last_donation_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Treasury transaction types.
const (
	TxnIncome  = "income"
	TxnExpense = "expense"
)

// TreasuryTransaction is a cash movement in a branch treasury. Unlike the
// other ledgers it is hard-deleted, with a compensating donor update.
type TreasuryTransaction struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type        string              `bson:"type" json:"type"`
	Amount      float64             `bson:"amount" json:"amount"`
	Description string              `bson:"description" json:"description"`
	Category    string              `bson:"category" json:"category"`
	DonorID     *primitive.ObjectID `bson:"donor_id,omitempty" json:"donor_id,omitempty"`
	DonorName   string              `bson:"donor_name,omitempty" json:"donor_name,omitempty"` // snapshot at creation
	BranchID    *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`
	Date        time.Time           `bson:"date" json:"date"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
