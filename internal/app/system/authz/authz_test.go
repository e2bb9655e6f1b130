package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/dalemusser/charityhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testUserID returns a valid ObjectID hex string for tests.
func testUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestIsSuperAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *auth.SessionUser
		want bool
	}{
		{"superadmin", &auth.SessionUser{ID: testUserID(), Role: "superadmin"}, true},
		{"mixed case", &auth.SessionUser{ID: testUserID(), Role: "SuperAdmin"}, true},
		{"admin", &auth.SessionUser{ID: testUserID(), Role: "admin"}, false},
		{"malformed id", &auth.SessionUser{ID: "nope", Role: "superadmin"}, false},
		{"no user", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			if got := authz.IsSuperAdmin(req); got != tt.want {
				t.Errorf("IsSuperAdmin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAdmin_TrueForSuperAdmin(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/test", nil), &auth.SessionUser{
		ID:   testUserID(),
		Role: "superadmin",
	})
	if !authz.IsAdmin(req) {
		t.Error("expected IsAdmin to return true for superadmin")
	}
}

func TestCanWrite(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"superadmin", true},
		{"admin", true},
		{"member", true},
		{"user", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := auth.WithTestUser(httptest.NewRequest("POST", "/test", nil), &auth.SessionUser{
				ID:   testUserID(),
				Role: tt.role,
			})
			if got := authz.CanWrite(req); got != tt.want {
				t.Errorf("CanWrite(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestUserBranchID(t *testing.T) {
	branch := primitive.NewObjectID()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/test", nil), &auth.SessionUser{
		ID:       testUserID(),
		Role:     "member",
		BranchID: branch.Hex(),
	})
	got := authz.UserBranchID(req)
	if got == nil || *got != branch {
		t.Errorf("UserBranchID = %v, want %v", got, branch)
	}

	noBranch := auth.WithTestUser(httptest.NewRequest("GET", "/test", nil), &auth.SessionUser{
		ID:   testUserID(),
		Role: "member",
	})
	if authz.UserBranchID(noBranch) != nil {
		t.Error("expected nil branch for user without branch")
	}
}

func TestUserCtx_ReturnsRole(t *testing.T) {
	id := primitive.NewObjectID()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/test", nil), &auth.SessionUser{
		ID:   id.Hex(),
		Name: "Mona",
		Role: "Admin",
	})
	role, name, userID, ok := authz.UserCtx(req)
	if !ok || role != "admin" || name != "Mona" || userID != id {
		t.Errorf("UserCtx = (%q, %q, %v, %v)", role, name, userID, ok)
	}
}

func TestHasAnyRole(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/test", nil), &auth.SessionUser{
		ID:   testUserID(),
		Role: "member",
	})
	if !authz.HasAnyRole(req, "admin", " Member ") {
		t.Error("expected member to match")
	}
	if authz.HasRole(req, "admin") {
		t.Error("member is not admin")
	}
}
