// internal/app/features/initiatives/routes.go
package initiatives

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts initiative routes under "/api/initiatives".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleMember))
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/status", h.HandleStatus)
	})

	return r
}
