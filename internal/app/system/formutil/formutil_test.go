package formutil_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sample struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantField string
	}{
		{"ok", `{"name":"Amina","amount":5}`, false, ""},
		{"empty", ``, true, ""},
		{"unknown field", `{"name":"A","amont":5}`, true, ""},
		{"wrong type", `{"name":"A","amount":"five"}`, true, "amount"},
		{"malformed", `{"name":`, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var s sample
			err := formutil.DecodeJSON(req, &s)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if s.Name != "Amina" || s.Amount != 5 {
					t.Errorf("unexpected decode %+v", s)
				}
				return
			}
			ve, ok := err.(*apperr.ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("field: got %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	id := primitive.NewObjectID()
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/", nil), "id", id.Hex())
	got, err := formutil.PathID(req, "id")
	if err != nil || got != id {
		t.Fatalf("got %v, %v", got, err)
	}

	req = testutil.WithChiURLParam(httptest.NewRequest("GET", "/", nil), "id", "nope")
	if _, err := formutil.PathID(req, "id"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBranchOverride(t *testing.T) {
	id := primitive.NewObjectID()
	tests := []struct {
		query   string
		want    *primitive.ObjectID
		wantErr bool
	}{
		{"", nil, false},
		{"?branch=all", nil, false},
		{"?branch=ALL", nil, false},
		{"?branch=" + id.Hex(), &id, false},
		{"?branch=xyz", nil, true},
	}
	for _, tt := range tests {
		got, err := formutil.BranchOverride(httptest.NewRequest("GET", "/api/summary"+tt.query, nil))
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err %v", tt.query, err)
			continue
		}
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("%q: got %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	got, err := formutil.Date("date", "2024-03-10")
	if err != nil || !got.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date only: got %v, %v", got, err)
	}
	got, err = formutil.Date("date", "2024-03-10T08:30:00+02:00")
	if err != nil || got.Hour() != 6 {
		t.Errorf("rfc3339: got %v, %v", got, err)
	}
	if got, err := formutil.Date("date", ""); err != nil || !got.IsZero() {
		t.Errorf("empty: got %v, %v", got, err)
	}
	if _, err := formutil.Date("date", "10/03/2024"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
