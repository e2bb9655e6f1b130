// internal/app/features/treasury/types.go
package treasury

import (
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/domain/models"
)

type transactionRequest struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	// Donor is a donor id or a name. A new name creates the donor.
	Donor    string `json:"donor"`
	Date     string `json:"date"`
	BranchID string `json:"branch_id"`
}

type listResponse struct {
	Transactions []models.TreasuryTransaction `json:"transactions"`
	Page         paging.Result                `json:"page"`
}

type donorListResponse struct {
	Donors []models.Donor `json:"donors"`
}

type donorResponse struct {
	Donor        models.Donor                 `json:"donor"`
	Transactions []models.TreasuryTransaction `json:"transactions"`
}
