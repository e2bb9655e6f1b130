// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/charityhub/internal/app/features/auditlog"
	beneficiariesfeature "github.com/dalemusser/charityhub/internal/app/features/beneficiaries"
	branchesfeature "github.com/dalemusser/charityhub/internal/app/features/branches"
	errorsfeature "github.com/dalemusser/charityhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/charityhub/internal/app/features/health"
	initiativesfeature "github.com/dalemusser/charityhub/internal/app/features/initiatives"
	loansfeature "github.com/dalemusser/charityhub/internal/app/features/loans"
	maintenancefeature "github.com/dalemusser/charityhub/internal/app/features/maintenance"
	productsfeature "github.com/dalemusser/charityhub/internal/app/features/products"
	summaryfeature "github.com/dalemusser/charityhub/internal/app/features/summary"
	treasuryfeature "github.com/dalemusser/charityhub/internal/app/features/treasury"
	warehousefeature "github.com/dalemusser/charityhub/internal/app/features/warehouse"
	"github.com/dalemusser/charityhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Session middleware runs on every
// request; the JSON API lives under /api, with /health and /metrics at the
// root for orchestrators and scrapers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	errHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.MongoDatabase, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.NotFound(errHandler.NotFound)
		api.MethodNotAllowed(errHandler.MethodNotAllowed)

		api.Mount("/branches", branchesfeature.Routes(branchesfeature.NewHandler(db, deps.Audit, logger), sessionMgr))
		api.Mount("/beneficiaries", beneficiariesfeature.Routes(beneficiariesfeature.NewHandler(db, deps.Audit, logger), sessionMgr))
		api.Mount("/loans", loansfeature.Routes(loansfeature.NewHandler(db, deps.Ledger, logger), sessionMgr))
		api.Mount("/products", productsfeature.Routes(productsfeature.NewHandler(db, deps.Ledger, deps.Audit, logger), sessionMgr))
		api.Mount("/warehouse", warehousefeature.Routes(warehousefeature.NewHandler(db, deps.Ledger, logger), sessionMgr))
		api.Mount("/treasury", treasuryfeature.Routes(treasuryfeature.NewHandler(db, deps.Ledger, logger), sessionMgr))
		api.Mount("/initiatives", initiativesfeature.Routes(initiativesfeature.NewHandler(db, deps.Audit, logger), sessionMgr))
		api.Mount("/summary", summaryfeature.Routes(summaryfeature.NewHandler(db, logger), sessionMgr))
		api.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(db, logger), sessionMgr))
		api.Mount("/admin", maintenancefeature.Routes(maintenancefeature.NewHandler(deps.Ledger, logger), sessionMgr))
	})

	return r, nil
}
