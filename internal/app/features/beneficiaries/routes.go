// internal/app/features/beneficiaries/routes.go
package beneficiaries

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Beneficiary routes under the base path
// (typically "/api/beneficiaries" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
		// Scoring preview; nothing is stored.
		pr.Post("/score", h.HandleScore)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleMember))
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
