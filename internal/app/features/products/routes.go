// internal/app/features/products/routes.go
package products

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts product routes under "/api/products".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
		pr.Get("/{id}/operations", h.ServeOperations)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleMember))

		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Post("/{id}/archive", h.HandleArchive)
		pr.Post("/{id}/unarchive", h.HandleUnarchive)
		pr.Delete("/{id}", h.HandleDelete)

		pr.Post("/{id}/operations", h.HandleApply)
		pr.Put("/{id}/operations/{opid}", h.HandleAmend)
		pr.Delete("/{id}/operations/{opid}", h.HandleReverse)
	})

	return r
}
