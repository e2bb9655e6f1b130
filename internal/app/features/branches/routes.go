// internal/app/features/branches/routes.go
package branches

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Branch routes under the base path
// (typically "/api/branches" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Every signed-in user can read the branch list (pickers, labels).
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
	})

	// Branch management is superadmin-only.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}", h.HandleUpdate)
	})

	return r
}
