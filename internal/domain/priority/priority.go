// Package priority turns a household's financial and health profile into a
// triage score from 1 (least need) to 10 (greatest need).
package priority

import (
	"math"
	"strings"

	"github.com/dalemusser/charityhub/internal/domain/models"
)

const (
	// Min and Max bound every score.
	Min = 1
	Max = 10

	subsistencePerMember = 1500.0
	medicalPerSickPerson = 1000.0
	maxHealthBonus       = 3
)

// Profile is the scorer's input. Zero values are valid: missing income is 0,
// missing family size is treated as 1 and missing marital status as single.
type Profile struct {
	Income                float64
	SpouseIncome          float64
	RentalCost            float64
	FamilyMembers         int
	MaritalStatus         string
	BeneficiarySick       bool
	SpouseSick            bool
	SickUnmarriedChildren int
}

// threshold maps a minimum burden ratio to a base priority. Ordered from the
// highest ratio down; 2, 4 and 8 are never produced as a base.
var thresholds = []struct {
	ratio float64
	base  int
}{
	{2.5, 10},
	{2.0, 9},
	{1.5, 7},
	{1.0, 6},
	{0.6, 5},
	{0.35, 3},
}

// Score computes the priority for p. It never fails.
func Score(p Profile) int {
	monthly := p.Income + p.SpouseIncome
	if monthly <= 0 {
		return Max
	}

	family := p.FamilyMembers
	if family < 1 {
		family = 1
	}

	sick := SickCount(p)

	burden := p.RentalCost + float64(family)*subsistencePerMember + float64(sick)*medicalPerSickPerson
	score := float64(baseFor(burden/monthly) + min(sick, maxHealthBonus))

	return int(math.Round(math.Max(Min, math.Min(Max, score))))
}

// SickCount counts sick household members. Sick unmarried children only
// count when the beneficiary is single.
func SickCount(p Profile) int {
	n := 0
	if p.BeneficiarySick {
		n++
	}
	if p.SpouseSick {
		n++
	}
	if maritalStatus(p.MaritalStatus) == models.MaritalSingle && p.SickUnmarriedChildren > 0 {
		n += p.SickUnmarriedChildren
	}
	return n
}

func baseFor(ratio float64) int {
	for _, t := range thresholds {
		if ratio >= t.ratio {
			return t.base
		}
	}
	return Min
}

func maritalStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return models.MaritalSingle
	}
	return s
}

// Check returns the field and reason for the first value in p that a
// caller must reject, or two empty strings when p is acceptable.
func Check(p Profile) (field, reason string) {
	switch {
	case p.Income < 0:
		return "income", "must not be negative"
	case p.SpouseIncome < 0:
		return "spouse_income", "must not be negative"
	case p.RentalCost < 0:
		return "rental_cost", "must not be negative"
	case p.FamilyMembers < 0:
		return "family_members", "must not be negative"
	case p.SickUnmarriedChildren < 0:
		return "health_status.sick_unmarried_children_count", "must not be negative"
	}
	switch maritalStatus(p.MaritalStatus) {
	case models.MaritalSingle, models.MaritalMarried, models.MaritalWidowed, models.MaritalDivorced:
		return "", ""
	}
	return "marital_status", "must be single, married, widowed or divorced"
}

// FromBeneficiary extracts the scoring inputs from a beneficiary record.
func FromBeneficiary(b models.Beneficiary) Profile {
	return Profile{
		Income:                b.Income,
		SpouseIncome:          b.SpouseIncome,
		RentalCost:            b.RentalCost,
		FamilyMembers:         b.FamilyMembers,
		MaritalStatus:         b.MaritalStatus,
		BeneficiarySick:       isSick(b.HealthStatus.BeneficiaryHealth),
		SpouseSick:            isSick(b.HealthStatus.SpouseHealth),
		SickUnmarriedChildren: b.HealthStatus.SickUnmarriedChildrenCount,
	}
}

func isSick(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), models.HealthSick)
}
