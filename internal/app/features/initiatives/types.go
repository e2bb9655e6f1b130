// internal/app/features/initiatives/types.go
package initiatives

import "github.com/dalemusser/charityhub/internal/domain/models"

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	// BranchID empty from a superadmin creates one copy per active branch.
	BranchID string `json:"branch_id"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type listResponse struct {
	Initiatives []models.Initiative `json:"initiatives"`
}

type createResponse struct {
	Initiatives []models.Initiative `json:"initiatives"`
}

func validStatus(s string) bool {
	switch s {
	case models.InitiativePlanned, models.InitiativeActive, models.InitiativeCompleted:
		return true
	}
	return false
}
