package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Health values stored on a beneficiary profile.
const (
	HealthHealthy = "healthy"
	HealthSick    = "sick"
)

// Marital status values.
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalWidowed  = "widowed"
	MaritalDivorced = "divorced"
)

// HealthStatus describes the household's health situation.
type HealthStatus struct {
	BeneficiaryHealth          string `bson:"beneficiary_health" json:"beneficiary_health"`
	SpouseHealth               string `bson:"spouse_health" json:"spouse_health"`
	SickUnmarriedChildrenCount int    `bson:"sick_unmarried_children_count" json:"sick_unmarried_children_count"`
}

// Beneficiary is a household receiving aid.
//
// Priority is derived from the financial and health fields and is rewritten
// on every create/update; it is never set directly.
type Beneficiary struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"`
	NameCI     string              `bson:"name_ci" json:"-"`
	NationalID string              `bson:"national_id,omitempty" json:"national_id,omitempty"`
	Phone      string              `bson:"phone,omitempty" json:"phone,omitempty"`
	BranchID   *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`

	Income        float64      `bson:"income" json:"income"`
	SpouseIncome  float64      `bson:"spouse_income" json:"spouse_income"`
	RentalCost    float64      `bson:"rental_cost" json:"rental_cost"`
	FamilyMembers int          `bson:"family_members" json:"family_members"`
	MaritalStatus string       `bson:"marital_status" json:"marital_status"`
	HealthStatus  HealthStatus `bson:"health_status" json:"health_status"`

	Priority int `bson:"priority" json:"priority"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}
