// internal/app/features/branches/types.go
package branches

import "github.com/dalemusser/charityhub/internal/domain/models"

type createRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type updateRequest struct {
	Name     *string `json:"name"`
	Code     *string `json:"code"`
	IsActive *bool   `json:"is_active"`
}

type listResponse struct {
	Branches []models.Branch `json:"branches"`
}
