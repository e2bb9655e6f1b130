// internal/app/features/warehouse/routes.go
package warehouse

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts warehouse routes under "/api/warehouse".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/movements", h.ServeList)
		pr.Get("/movements/{id}", h.ServeView)
		pr.Get("/stock", h.ServeStock)
		pr.Get("/cash", h.ServeCash)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleMember))
		pr.Post("/movements", h.HandleRecord)
		pr.Put("/movements/{id}", h.HandleAmend)
		pr.Delete("/movements/{id}", h.HandleDelete)
	})

	return r
}
