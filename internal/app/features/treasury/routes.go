// internal/app/features/treasury/routes.go
package treasury

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts treasury and donor routes under "/api/treasury".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/transactions", h.ServeList)
		pr.Get("/balance", h.ServeBalance)
		pr.Get("/donors", h.ServeDonors)
		pr.Get("/donors/{id}", h.ServeDonor)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleMember))
		pr.Post("/transactions", h.HandleCreate)
		pr.Delete("/transactions/{id}", h.HandleDelete)
	})

	return r
}
