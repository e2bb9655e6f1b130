package ledgermetrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
)

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"validation", apperr.Invalid("amount", "must be positive"), "validation"},
		{"branch required", apperr.ErrBranchRequired, "validation"},
		{"fund", fmt.Errorf("create loan: %w", apperr.ErrInsufficientFund), "insufficient_fund"},
		{"stock", apperr.ErrInsufficientStock, "insufficient_stock"},
		{"not found", apperr.ErrNotFound, "not_found"},
		{"forbidden", apperr.ErrForbidden, "forbidden"},
		{"conflict", apperr.ErrConflict, "conflict"},
		{"other", errors.New("socket closed"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reason(tt.err); got != tt.want {
				t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestRejected_PassesErrorThrough(t *testing.T) {
	if Rejected(KindLoan, nil) != nil {
		t.Error("expected nil through")
	}
	if err := Rejected(KindLoan, apperr.ErrInsufficientFund); !errors.Is(err, apperr.ErrInsufficientFund) {
		t.Errorf("expected same error back, got %v", err)
	}
}
