// internal/app/features/maintenance/routes.go
package maintenance

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the repair endpoints under "/api/admin". Superadmin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(auth.RoleSuperAdmin))
	r.Post("/relink-donors", h.HandleRelinkDonors)
	r.Post("/reconcile", h.HandleReconcile)
	r.Post("/rescore", h.HandleRescore)
	return r
}
