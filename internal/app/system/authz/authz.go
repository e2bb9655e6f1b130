// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. ok=true means a valid, authenticated
// user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsSuperAdmin reports whether the current request's user is a superadmin.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == auth.RoleSuperAdmin
}

// IsAdmin reports whether the current request's user is an admin.
// Superadmins are also considered admins.
func IsAdmin(r *http.Request) bool {
	return HasAnyRole(r, auth.RoleAdmin, auth.RoleSuperAdmin)
}

// CanWrite reports whether the current user may mutate branch data.
// The "user" role is read-only.
func CanWrite(r *http.Request) bool {
	return HasAnyRole(r, auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleMember)
}

// UserBranchID returns the current user's branch as an ObjectID.
// Returns nil if the user is not logged in or has no (valid) branch.
func UserBranchID(r *http.Request) *primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.BranchID == "" {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(user.BranchID)
	if err != nil {
		return nil
	}
	return &oid
}
