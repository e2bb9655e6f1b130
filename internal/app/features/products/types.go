// internal/app/features/products/types.go
package products

import (
	"strings"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/charityhub/internal/domain/models"
)

type productRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	BranchID string `json:"branch_id"`
}

func (in productRequest) clean() (name, category, unit string, err error) {
	name = htmlsanitize.Text(strings.TrimSpace(in.Name))
	if name == "" {
		return "", "", "", apperr.Invalid("name", "is required")
	}
	category = htmlsanitize.Text(strings.TrimSpace(in.Category))
	unit = htmlsanitize.Text(strings.TrimSpace(in.Unit))
	if unit == "" {
		unit = "unit"
	}
	return name, category, unit, nil
}

type operationRequest struct {
	Type            string  `json:"type"`
	Quantity        float64 `json:"quantity"`
	Amount          float64 `json:"amount"`
	AmountType      string  `json:"amount_type"`
	TargetProductID string  `json:"target_product_id"`
	TargetQuantity  float64 `json:"target_quantity"`
	Notes           string  `json:"notes"`
	Date            string  `json:"date"`
}

type listResponse struct {
	Products []models.Product `json:"products"`
}

type viewResponse struct {
	Product    models.Product            `json:"product"`
	Operations []models.ProductOperation `json:"operations"`
}

type applyResponse struct {
	Operation models.ProductOperation `json:"operation"`
	Product   models.Product          `json:"product"`
}
