package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Message(t *testing.T) {
	err := Invalid("amount", "must be greater than %d", 0)
	if err.Error() != "amount: must be greater than 0" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsValidation(err) {
		t.Error("expected IsValidation to be true")
	}
	if !IsValidation(fmt.Errorf("create loan: %w", err)) {
		t.Error("expected IsValidation to see through wrapping")
	}
}

func TestBranchRequired_IsValidation(t *testing.T) {
	if !IsValidation(ErrBranchRequired) {
		t.Error("ErrBranchRequired should be a validation error")
	}
	if ErrBranchRequired.Error() != "branch_id: branch required" {
		t.Errorf("unexpected message %q", ErrBranchRequired.Error())
	}
}

func TestWrappers(t *testing.T) {
	if err := NotFoundf("loan %s", "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("NotFoundf should wrap ErrNotFound, got %v", err)
	}
	err := Shortf(ErrInsufficientStock, "have %v, need %v", 2, 5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("Shortf should wrap sentinel, got %v", err)
	}
	if IsValidation(err) {
		t.Error("stock errors are not validation errors")
	}
}
