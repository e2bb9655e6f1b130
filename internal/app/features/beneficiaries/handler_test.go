package beneficiaries_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/charityhub/internal/app/features/beneficiaries"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *beneficiaries.Handler {
	t.Helper()
	return beneficiaries.NewHandler(testutil.SetupTestDB(t), nil, zap.NewNop())
}

func TestHandleScore(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body map[string]any
		code int
		want int
	}{
		{"zero income", map[string]any{"family_members": 4}, http.StatusOK, 10},
		{"comfortable single", map[string]any{"income": 6000, "family_members": 1, "marital_status": "single"}, http.StatusOK, 1},
		{"sick married couple", map[string]any{
			"income": 3000, "family_members": 2, "marital_status": "married",
			"health_status": map[string]any{"beneficiary_health": "sick", "spouse_health": "sick"},
		}, http.StatusOK, 9},
		{"negative rent", map[string]any{"income": 100, "rental_cost": -1}, http.StatusBadRequest, 0},
		{"bad marital status", map[string]any{"income": 100, "marital_status": "complicated"}, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.JSONRequest("POST", "/api/beneficiaries/score", tt.body), testutil.ReadOnlyUser(testutil.NewID()))
			rec := httptest.NewRecorder()
			h.HandleScore(rec, req)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var got struct {
				Priority int `json:"priority"`
			}
			testutil.DecodeBody(t, rec, &got)
			if got.Priority != tt.want {
				t.Errorf("priority = %d, want %d", got.Priority, tt.want)
			}
		})
	}
}

func TestHandleCreate_AssignsBranchAndPriority(t *testing.T) {
	h := newTestHandler(t)
	branch := testutil.NewID()

	req := testutil.JSONRequest("POST", "/api/beneficiaries", map[string]any{
		"name": "Amina Said", "income": 0, "family_members": 5, "priority": 1,
	})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.WithUser(req, testutil.MemberUser(branch)))

	// "priority" is not an accepted field.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a client-set priority, got %d", rec.Code)
	}

	req = testutil.JSONRequest("POST", "/api/beneficiaries", map[string]any{
		"name": "Amina Said", "income": 0, "family_members": 5,
	})
	rec = httptest.NewRecorder()
	h.HandleCreate(rec, testutil.WithUser(req, testutil.MemberUser(branch)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var b models.Beneficiary
	testutil.DecodeBody(t, rec, &b)
	if b.Priority != 10 {
		t.Errorf("priority = %d, want 10", b.Priority)
	}
	if b.BranchID == nil || *b.BranchID != branch {
		t.Errorf("branch = %v, want %v", b.BranchID, branch)
	}
}

func TestHandleCreate_OtherBranchForbidden(t *testing.T) {
	h := newTestHandler(t)
	other := testutil.NewID()

	req := testutil.JSONRequest("POST", "/api/beneficiaries", map[string]any{
		"name": "Omar", "branch_id": other.Hex(),
	})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.WithUser(req, testutil.AdminUser(testutil.NewID())))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandleCreate_SuperAdminNeedsBranch(t *testing.T) {
	h := newTestHandler(t)

	req := testutil.JSONRequest("POST", "/api/beneficiaries", map[string]any{"name": "Omar"})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.WithUser(req, testutil.SuperAdminUser()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServeList_ScopedAndSorted(t *testing.T) {
	h := newTestHandler(t)
	branch := testutil.NewID()
	other := testutil.NewID()

	create := func(user testutil.TestUser, body map[string]any) {
		t.Helper()
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.WithUser(testutil.JSONRequest("POST", "/api/beneficiaries", body), user))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
		}
	}
	create(testutil.MemberUser(branch), map[string]any{"name": "Rich", "income": 9000, "family_members": 1})
	create(testutil.MemberUser(branch), map[string]any{"name": "Poor", "income": 0})
	create(testutil.MemberUser(other), map[string]any{"name": "Elsewhere", "income": 0})

	rec := httptest.NewRecorder()
	h.ServeList(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/beneficiaries", nil), testutil.MemberUser(branch)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Beneficiaries []models.Beneficiary `json:"beneficiaries"`
		Total         int64                `json:"total"`
	}
	testutil.DecodeBody(t, rec, &got)
	if got.Total != 2 || len(got.Beneficiaries) != 2 {
		t.Fatalf("expected 2 in branch, got %d/%d", got.Total, len(got.Beneficiaries))
	}
	if got.Beneficiaries[0].Name != "Poor" {
		t.Errorf("neediest should come first, got %s", got.Beneficiaries[0].Name)
	}

	// Superadmin override narrows to one branch.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/beneficiaries?branch="+other.Hex(), nil)
	h.ServeList(rec, testutil.WithUser(req, testutil.SuperAdminUser()))
	testutil.DecodeBody(t, rec, &got)
	if got.Total != 1 || got.Beneficiaries[0].Name != "Elsewhere" {
		t.Errorf("override: unexpected result %+v", got)
	}
}

func TestHandleDelete(t *testing.T) {
	h := newTestHandler(t)
	branch := testutil.NewID()
	member := testutil.MemberUser(branch)

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.WithUser(testutil.JSONRequest("POST", "/api/beneficiaries", map[string]any{"name": "Amina"}), member))
	var b models.Beneficiary
	testutil.DecodeBody(t, rec, &b)

	del := func(user testutil.TestUser) int {
		req := httptest.NewRequest("DELETE", "/api/beneficiaries/"+b.ID.Hex(), nil)
		req = testutil.WithChiURLParam(testutil.WithUser(req, user), "id", b.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleDelete(rec, req)
		return rec.Code
	}
	if code := del(testutil.MemberUser(testutil.NewID())); code != http.StatusNotFound {
		t.Errorf("other branch: expected 404, got %d", code)
	}
	if code := del(member); code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", code)
	}
	if code := del(member); code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", code)
	}
}
