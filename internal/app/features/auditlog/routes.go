// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all audit log routes under the path where this
// router is mounted (typically "/api/audit" from bootstrap).
//
// Access is restricted to superadmins and admins.
// Superadmins see all events; admins see only events for their branch.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Get("/entity/{id}", h.ServeEntity)
	})

	return r
}
