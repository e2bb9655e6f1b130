package ledger_test

import (
	"testing"

	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	svc    *ledger.Service
	db     *mongo.Database
	fx     *testutil.Fixtures
	branch primitive.ObjectID
	admin  branchpolicy.Principal
	super  branchpolicy.Principal
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	branch := testutil.NewID()
	return env{
		svc:    ledger.New(db, zap.NewNop(), nil, 0),
		db:     db,
		fx:     testutil.NewFixtures(t, db),
		branch: branch,
		admin:  testutil.AdminUser(branch).Principal(),
		super:  testutil.SuperAdminUser().Principal(),
	}
}
