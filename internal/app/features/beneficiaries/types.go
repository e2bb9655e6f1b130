// internal/app/features/beneficiaries/types.go
package beneficiaries

import (
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/charityhub/internal/app/system/normalize"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/domain/priority"
)

type beneficiaryRequest struct {
	Name          string              `json:"name"`
	NationalID    string              `json:"national_id"`
	Phone         string              `json:"phone"`
	BranchID      string              `json:"branch_id"`
	Income        float64             `json:"income"`
	SpouseIncome  float64             `json:"spouse_income"`
	RentalCost    float64             `json:"rental_cost"`
	FamilyMembers int                 `json:"family_members"`
	MaritalStatus string              `json:"marital_status"`
	HealthStatus  models.HealthStatus `json:"health_status"`
}

type listResponse struct {
	Beneficiaries []models.Beneficiary `json:"beneficiaries"`
	Total         int64                `json:"total"`
	Page          paging.Result        `json:"page"`
}

type scoreResponse struct {
	Priority int `json:"priority"`
}

func validHealth(s string) bool {
	switch s {
	case "", models.HealthHealthy, models.HealthSick:
		return true
	}
	return false
}

// toModel validates in and returns the beneficiary it describes. The name
// is only required when requireName is set, so the scoring preview can take
// a bare profile.
func (in beneficiaryRequest) toModel(requireName bool) (models.Beneficiary, error) {
	b := models.Beneficiary{
		Name:          normalize.Name(htmlsanitize.Text(in.Name)),
		NationalID:    htmlsanitize.Text(in.NationalID),
		Phone:         htmlsanitize.Text(in.Phone),
		Income:        in.Income,
		SpouseIncome:  in.SpouseIncome,
		RentalCost:    in.RentalCost,
		FamilyMembers: in.FamilyMembers,
		MaritalStatus: normalize.Role(in.MaritalStatus),
		HealthStatus: models.HealthStatus{
			BeneficiaryHealth:          normalize.Role(in.HealthStatus.BeneficiaryHealth),
			SpouseHealth:               normalize.Role(in.HealthStatus.SpouseHealth),
			SickUnmarriedChildrenCount: in.HealthStatus.SickUnmarriedChildrenCount,
		},
	}
	switch {
	case requireName && b.Name == "":
		return b, apperr.Invalid("name", "is required")
	case !validHealth(b.HealthStatus.BeneficiaryHealth):
		return b, apperr.Invalid("health_status.beneficiary_health", "must be healthy or sick")
	case !validHealth(b.HealthStatus.SpouseHealth):
		return b, apperr.Invalid("health_status.spouse_health", "must be healthy or sick")
	}
	if field, reason := priority.Check(priority.FromBeneficiary(b)); field != "" {
		return b, apperr.Invalid(field, "%s", reason)
	}
	return b, nil
}
