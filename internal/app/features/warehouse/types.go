// internal/app/features/warehouse/types.go
package warehouse

import (
	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/shopspring/decimal"
)

type movementRequest struct {
	Type     string  `json:"type"`
	Category string  `json:"category"`
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Value    float64 `json:"value"`
	Notes    string  `json:"notes"`
	Date     string  `json:"date"`
	BranchID string  `json:"branch_id"`
}

func (in movementRequest) input() (ledger.MovementInput, error) {
	branch, err := formutil.OptionalID("branch_id", in.BranchID)
	if err != nil {
		return ledger.MovementInput{}, err
	}
	date, err := formutil.Date("date", in.Date)
	if err != nil {
		return ledger.MovementInput{}, err
	}
	return ledger.MovementInput{
		Type:     in.Type,
		Category: in.Category,
		Item:     in.Item,
		Quantity: in.Quantity,
		Value:    in.Value,
		Notes:    in.Notes,
		Date:     date,
		BranchID: branch,
	}, nil
}

type listResponse struct {
	Movements []models.WarehouseMovement `json:"movements"`
	Page      paging.Result              `json:"page"`
}

type stockResponse struct {
	Items map[string]decimal.Decimal `json:"items"`
}

type itemStockResponse struct {
	Item     string          `json:"item"`
	Quantity decimal.Decimal `json:"quantity"`
}

type cashResponse struct {
	Cash decimal.Decimal `json:"cash"`
}
