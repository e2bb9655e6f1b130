// Package branchpolicy decides which branch-partitioned records a principal
// may see and which branch a write lands in.
//
// Read rules:
//   - Superadmin without an override sees every branch
//   - Superadmin with an override sees exactly that branch
//   - Any other role sees its own branch plus records with no branch
//     (data created before branches existed)
//   - Any other role without a branch sees only records with no branch
//
// Write rules:
//   - Superadmin must name the target branch, except where fan-out to every
//     active branch is allowed
//   - Any other role always writes to its own branch; naming a different
//     branch is forbidden
package branchpolicy

import (
	"net/http"
	"strings"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names shared by every branch-scoped collection.
const (
	FieldBranch  = "branch_id"
	FieldDeleted = "deleted_at"
)

// Principal is the authenticated caller as the ledger sees it.
type Principal struct {
	UserID     string
	Role       string
	BranchID   *primitive.ObjectID
	BranchName string
}

// IsSuperAdmin reports whether p sees all branches.
func (p Principal) IsSuperAdmin() bool {
	return p.Role == auth.RoleSuperAdmin
}

// FromSessionUser projects a session user. A nil user yields a principal
// with no role, which can neither write nor see branch data beyond legacy rows.
func FromSessionUser(u *auth.SessionUser) Principal {
	if u == nil {
		return Principal{}
	}
	p := Principal{
		UserID:     u.ID,
		Role:       strings.ToLower(strings.TrimSpace(u.Role)),
		BranchName: u.BranchName,
	}
	if oid, err := primitive.ObjectIDFromHex(u.BranchID); err == nil {
		p.BranchID = &oid
	}
	return p
}

// FromRequest returns the principal for r and whether one is signed in.
func FromRequest(r *http.Request) (Principal, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Principal{}, false
	}
	return FromSessionUser(u), true
}

// ResolveFilter returns the read filter for p. override is honored for
// superadmins only.
func ResolveFilter(p Principal, override *primitive.ObjectID) bson.M {
	if p.IsSuperAdmin() {
		if override == nil {
			return bson.M{}
		}
		return bson.M{FieldBranch: *override}
	}
	if p.BranchID == nil {
		return bson.M{FieldBranch: nil}
	}
	return bson.M{"$or": bson.A{
		bson.M{FieldBranch: *p.BranchID},
		bson.M{FieldBranch: nil},
	}}
}

// NotDeleted matches rows without a soft-delete mark.
func NotDeleted() bson.M {
	return bson.M{FieldDeleted: nil}
}

// Scope combines a branch filter with further conditions. Parts are joined
// with $and so a scope's $or is never merged with another's.
func Scope(filter bson.M, extra ...bson.M) bson.M {
	parts := make(bson.A, 0, 1+len(extra))
	if len(filter) > 0 {
		parts = append(parts, filter)
	}
	for _, e := range extra {
		if len(e) > 0 {
			parts = append(parts, e)
		}
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		out := bson.M{}
		for k, v := range parts[0].(bson.M) {
			out[k] = v
		}
		return out
	default:
		return bson.M{"$and": parts}
	}
}

// TargetKind distinguishes a single-branch write from a fan-out.
type TargetKind int

const (
	TargetSingle TargetKind = iota
	TargetAllActiveBranches
)

// Target is where a create lands. For TargetSingle, BranchID may be nil
// when a principal without a branch writes an unassigned record.
type Target struct {
	Kind     TargetKind
	BranchID *primitive.ObjectID
}

// Single targets one branch.
func Single(id *primitive.ObjectID) Target {
	return Target{Kind: TargetSingle, BranchID: id}
}

// AllActiveBranches targets one copy per active branch.
func AllActiveBranches() Target {
	return Target{Kind: TargetAllActiveBranches}
}

// IsFanOut reports whether t targets every active branch.
func (t Target) IsFanOut() bool {
	return t.Kind == TargetAllActiveBranches
}

// ResolveTarget decides where a create by p lands.
func ResolveTarget(p Principal, requested *primitive.ObjectID, allowFanOut bool) (Target, error) {
	if p.IsSuperAdmin() {
		if requested != nil {
			return Single(requested), nil
		}
		if allowFanOut {
			return AllActiveBranches(), nil
		}
		return Target{}, apperr.ErrBranchRequired
	}
	if requested != nil && (p.BranchID == nil || *requested != *p.BranchID) {
		return Target{}, apperr.ErrForbidden
	}
	return Single(p.BranchID), nil
}

// WriteBranch is ResolveTarget without fan-out, returning the branch id.
func WriteBranch(p Principal, requested *primitive.ObjectID) (*primitive.ObjectID, error) {
	t, err := ResolveTarget(p, requested, false)
	if err != nil {
		return nil, err
	}
	return t.BranchID, nil
}

// BalanceScope is the filter for a branch-pooled balance check (loan fund,
// warehouse stock and cash) on a write into branch. It is the same filter p
// would get on the summary screen for that branch. A superadmin touching an
// unassigned record checks the unassigned pool, not every branch.
func BalanceScope(p Principal, branch *primitive.ObjectID) bson.M {
	if p.IsSuperAdmin() && branch == nil {
		return bson.M{FieldBranch: nil}
	}
	return ResolveFilter(p, branch)
}

// BalanceIncludesUnassigned reports whether BalanceScope(p, branch) also
// counts rows with no branch.
func BalanceIncludesUnassigned(p Principal, branch *primitive.ObjectID) bool {
	return !p.IsSuperAdmin() && branch != nil
}

// CanWrite reports whether p may mutate branch data.
func CanWrite(p Principal) bool {
	switch p.Role {
	case auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleMember:
		return true
	}
	return false
}

// CanManageBranches reports whether p may create or edit branches.
func CanManageBranches(p Principal) bool {
	return p.IsSuperAdmin()
}
