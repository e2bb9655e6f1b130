package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Loan statuses.
const (
	LoanActive    = "active"
	LoanCompleted = "completed"
	LoanDefaulted = "defaulted"
)

// Repayment is one installment paid against a loan.
type Repayment struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Amount float64            `bson:"amount" json:"amount"`
	Date   time.Time          `bson:"date" json:"date"`
	Notes  string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Loan is an interest-free micro-loan (qard hasan) drawn from a branch's
// lending fund.
//
// AmountPaid always equals the sum of Repayments. Status is completed exactly
// when AmountPaid >= Amount, unless it was manually set to defaulted.
// Version guards read-validate-write sequences on the repayment list.
type Loan struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	BeneficiaryName string              `bson:"beneficiary_name" json:"beneficiary_name"`
	NationalID      string              `bson:"national_id,omitempty" json:"national_id,omitempty"`
	Amount          float64             `bson:"amount" json:"amount"`
	AmountPaid      float64             `bson:"amount_paid" json:"amount_paid"`
	Status          string              `bson:"status" json:"status"`
	Repayments      []Repayment         `bson:"repayments" json:"repayments"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	BranchID        *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`
	Version         int64               `bson:"version" json:"version"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// Remaining is the principal still outstanding.
func (l Loan) Remaining() float64 {
	if l.AmountPaid >= l.Amount {
		return 0
	}
	return l.Amount - l.AmountPaid
}

// LoanCapital is an append-only contribution to a branch's lending fund.
type LoanCapital struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Amount    float64             `bson:"amount" json:"amount"`
	Source    string              `bson:"source" json:"source"`
	BranchID  *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`
	Date      time.Time           `bson:"date" json:"date"`
	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
