// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging
// level, CORS, body limits). AppConfig carries what is specific to the
// charity back office: the Mongo connection, the session cookie, audit
// routing and the ledger's background checks.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: charityhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAdmin  string
	AuditLogLedger string

	// Ledger
	ReconcileInterval time.Duration // How often the drift check runs; 0 disables it
	TxnMaxRetries     int           // Optimistic-concurrency retries before ErrConflict

	// Observability
	MetricsEnabled bool // Mount /metrics
}
