// internal/app/features/loans/routes.go
package loans

import (
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts loan routes under the base path (typically "/api/loans").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/fund", h.ServeFund)
		pr.Get("/capital", h.ServeCapitalList)
		pr.Get("/{id}", h.ServeView)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleMember))

		pr.Post("/", h.HandleCreate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/status", h.HandleStatus)

		pr.Post("/{id}/repayments", h.HandleAddRepayment)
		pr.Put("/{id}/repayments/{rid}", h.HandleEditRepayment)
		pr.Delete("/{id}/repayments/{rid}", h.HandleDeleteRepayment)

		pr.Post("/capital", h.HandleAddCapital)
	})

	return r
}
