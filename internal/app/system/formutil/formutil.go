// Package formutil reads request input for the JSON API.
//
// Bodies are decoded strictly: unknown fields are rejected so a misspelled
// field is reported instead of silently ignored. Every failure is returned
// as an *apperr.ValidationError naming the offending field, which the
// errors feature renders as 400.
//
// Example usage:
//
//	var in createLoanRequest
//	if err := formutil.DecodeJSON(r, &in); err != nil {
//		uierrors.WriteJSON(w, r, h.Log, err)
//		return
//	}
//	branch, err := formutil.OptionalID("branch_id", in.BranchID)
package formutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/normalize"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes caps a JSON request body.
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Invalid("", "request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("", "request body is required")
		}
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return apperr.Invalid(ute.Field, "has the wrong type")
		}
		return apperr.Invalid("", "malformed JSON: %v", err)
	}
	return nil
}

// PathID parses the chi URL parameter name as an ObjectID.
func PathID(r *http.Request, name string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Invalid(name, "is not a valid id")
	}
	return oid, nil
}

// OptionalID parses s as an ObjectID. An empty s yields nil.
func OptionalID(field, s string) (*primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, apperr.Invalid(field, "is not a valid id")
	}
	return &oid, nil
}

// BranchOverride reads the ?branch= query parameter. "all" and empty mean
// no override. Only superadmins have overrides honored; that decision
// belongs to branchpolicy.
func BranchOverride(r *http.Request) (*primitive.ObjectID, error) {
	return OptionalID("branch", normalize.BranchParam(query.Get(r, "branch")))
}

// Date parses an RFC 3339 timestamp or a YYYY-MM-DD date. Empty yields the
// zero time.
func Date(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperr.Invalid(field, "must be a date (YYYY-MM-DD) or RFC 3339 time")
}
