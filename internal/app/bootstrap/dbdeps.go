// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/system/auditlog"
	"github.com/dalemusser/charityhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Ledger and Audit are built in ConnectDB so that every handler shares one
// service. Drift is set by Startup when the worker is enabled.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Audit  *auditlog.Logger
	Ledger *ledger.Service
	Drift  *workers.DriftCheck
}
