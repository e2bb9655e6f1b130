// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	"github.com/dalemusser/charityhub/internal/app/system/auditlog"
	"github.com/dalemusser/charityhub/internal/app/system/indexes"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the Mongo client, verifies it with a ping and builds the
// services shared by every handler.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Env overrides for the shared timeouts are applied before the first use.
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("overrides", n))
	}

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("mongo connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("mongo ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Admin:  appCfg.AuditLogAdmin,
		Ledger: appCfg.AuditLogLedger,
	})
	svc := ledger.New(db, logger, auditLogger, appCfg.TxnMaxRetries)

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Audit:         auditLogger,
		Ledger:        svc,
	}
	if appCfg.ReconcileInterval > 0 {
		deps.Drift = workers.NewDriftCheck(svc, logger, appCfg.ReconcileInterval)
	}
	return deps, nil
}

// EnsureSchema creates the indexes every store relies on, including the
// unique branch code and donor name constraints.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
