package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID       string
	Name     string
	Role     string
	BranchID string
}

// SuperAdminUser returns a TestUser that sees every branch.
func SuperAdminUser() TestUser {
	return TestUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Test Superadmin",
		Role: auth.RoleSuperAdmin,
	}
}

// AdminUser returns a TestUser with admin role in branch.
func AdminUser(branch primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Admin",
		Role:     auth.RoleAdmin,
		BranchID: branch.Hex(),
	}
}

// MemberUser returns a TestUser with member role in branch.
func MemberUser(branch primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Member",
		Role:     auth.RoleMember,
		BranchID: branch.Hex(),
	}
}

// ReadOnlyUser returns a TestUser with the read-only user role in branch.
func ReadOnlyUser(branch primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Viewer",
		Role:     auth.RoleUser,
		BranchID: branch.Hex(),
	}
}

// SessionUser converts u to the session form.
func (u TestUser) SessionUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:       u.ID,
		Name:     u.Name,
		Role:     u.Role,
		BranchID: u.BranchID,
	}
}

// Principal converts u to the form the ledger services take.
func (u TestUser) Principal() branchpolicy.Principal {
	return branchpolicy.FromSessionUser(u.SessionUser())
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, user.SessionUser())
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// JSONRequest creates a request whose body is v encoded as JSON.
func JSONRequest(method, target string, v any) *http.Request {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// DecodeBody decodes a recorded JSON response into v.
func DecodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response (status %d): %v", rec.Code, err)
	}
}
