package branches_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/charityhub/internal/app/features/branches"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*branches.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return branches.NewHandler(db, nil, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestHandleCreate_Success(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.JSONRequest("POST", "/api/branches", map[string]string{"name": "  Cairo   East ", "code": "cai-e"})
	req = testutil.WithUser(req, testutil.SuperAdminUser())
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var b models.Branch
	testutil.DecodeBody(t, rec, &b)
	if b.Name != "Cairo East" || b.Code != "CAI-E" || !b.IsActive {
		t.Errorf("unexpected branch %+v", b)
	}
}

func TestHandleCreate_DuplicateCode(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateBranch(ctx, "Giza", "GZ")

	req := testutil.JSONRequest("POST", "/api/branches", map[string]string{"name": "Giza 2", "code": "gz"})
	req = testutil.WithUser(req, testutil.SuperAdminUser())
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestHandleCreate_MissingFields(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, body := range []map[string]string{
		{"name": "", "code": "X"},
		{"name": "X", "code": "  "},
	} {
		req := testutil.WithUser(testutil.JSONRequest("POST", "/api/branches", body), testutil.SuperAdminUser())
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHandleUpdate_Deactivate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b := fx.CreateBranch(ctx, "Alex", "ALX")

	req := testutil.JSONRequest("PATCH", "/api/branches/"+b.ID.Hex(), map[string]any{"is_active": false})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.SuperAdminUser()), "id", b.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Branch
	testutil.DecodeBody(t, rec, &got)
	if got.IsActive || got.Code != "ALX" {
		t.Errorf("unexpected branch %+v", got)
	}

	// Inactive branches drop out of the active list.
	req = testutil.WithUser(httptest.NewRequest("GET", "/api/branches?active=true", nil), testutil.MemberUser(b.ID))
	rec = httptest.NewRecorder()
	h.ServeList(rec, req)
	var list struct {
		Branches []models.Branch `json:"branches"`
	}
	testutil.DecodeBody(t, rec, &list)
	if len(list.Branches) != 0 {
		t.Errorf("expected no active branches, got %d", len(list.Branches))
	}
}

func TestServeView_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	id := testutil.NewID()

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/api/branches/"+id.Hex(), nil), "id", id.Hex())
	rec := httptest.NewRecorder()
	h.ServeView(rec, testutil.WithUser(req, testutil.MemberUser(id)))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
