// internal/app/features/loans/types.go
package loans

import (
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/shopspring/decimal"
)

type createRequest struct {
	BeneficiaryName string  `json:"beneficiary_name"`
	NationalID      string  `json:"national_id"`
	Amount          float64 `json:"amount"`
	Notes           string  `json:"notes"`
	BranchID        string  `json:"branch_id"`
}

type repaymentRequest struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Notes  string  `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type capitalRequest struct {
	Amount   float64 `json:"amount"`
	Source   string  `json:"source"`
	Date     string  `json:"date"`
	BranchID string  `json:"branch_id"`
}

type listResponse struct {
	Loans []models.Loan `json:"loans"`
	Page  paging.Result `json:"page"`
}

type capitalListResponse struct {
	Capital []models.LoanCapital `json:"capital"`
}

type fundResponse struct {
	ledgerqueries.LoanFund
	Outstanding decimal.Decimal `json:"outstanding"`
}
