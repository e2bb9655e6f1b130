// Package ledgerqueries derives branch balances from the ledger collections.
//
// Every function takes one scope filter (from branchpolicy) and applies it to
// every collection it reads, so a summary and the balance check guarding a
// write see exactly the same rows. Soft-deleted rows never count.
//
// Sums are computed server-side as Decimal128 and combined with
// shopspring/decimal, so 0.1 + 0.2 is 0.3 here even though documents store
// doubles.
package ledgerqueries

import (
	"context"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/domain/effects"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names read here.
const (
	collLoanCapital = "loan_capital"
	collLoans       = "loans"
	collMovements   = "warehouse_movements"
	collOperations  = "product_operations"
	collTreasury    = "treasury_transactions"
)

func decSum(field string) bson.M {
	return bson.M{"$sum": bson.M{"$toDecimal": bson.M{"$ifNull": bson.A{field, 0}}}}
}

func toDecimal(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// groupRow is one $group output keyed by a string (or null).
type groupRow struct {
	Key   *string              `bson:"_id"`
	A     primitive.Decimal128 `bson:"a"`
	B     primitive.Decimal128 `bson:"b"`
	Count int64                `bson:"n"`
}

func aggregate(ctx context.Context, c *mongo.Collection, pipeline []bson.M) ([]groupRow, error) {
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []groupRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func live(scope bson.M, extra ...bson.M) bson.M {
	return branchpolicy.Scope(scope, append([]bson.M{branchpolicy.NotDeleted()}, extra...)...)
}

// LoanFund is the lending fund position for a scope.
type LoanFund struct {
	Capital   decimal.Decimal `json:"capital"`
	Lent      decimal.Decimal `json:"lent"`
	Repaid    decimal.Decimal `json:"repaid"`
	Available decimal.Decimal `json:"available"`
}

// Outstanding is principal lent and not yet repaid.
func (f LoanFund) Outstanding() decimal.Decimal {
	return f.Lent.Sub(f.Repaid)
}

// LoanFundPosition returns capital, lent and repaid totals for scope.
// Available = capital - lent + repaid.
func LoanFundPosition(ctx context.Context, db *mongo.Database, scope bson.M) (LoanFund, error) {
	capRows, err := aggregate(ctx, db.Collection(collLoanCapital), []bson.M{
		{"$match": branchpolicy.Scope(scope)},
		{"$group": bson.M{"_id": nil, "a": decSum("$amount")}},
	})
	if err != nil {
		return LoanFund{}, err
	}
	loanRows, err := aggregate(ctx, db.Collection(collLoans), []bson.M{
		{"$match": live(scope)},
		{"$group": bson.M{"_id": nil, "a": decSum("$amount"), "b": decSum("$amount_paid")}},
	})
	if err != nil {
		return LoanFund{}, err
	}

	var f LoanFund
	f.Capital, f.Lent, f.Repaid = decimal.Zero, decimal.Zero, decimal.Zero
	if len(capRows) > 0 {
		f.Capital = toDecimal(capRows[0].A)
	}
	if len(loanRows) > 0 {
		f.Lent = toDecimal(loanRows[0].A)
		f.Repaid = toDecimal(loanRows[0].B)
	}
	f.Available = f.Capital.Sub(f.Lent).Add(f.Repaid)
	return f, nil
}

// AvailableLoanFund is LoanFundPosition(...).Available.
func AvailableLoanFund(ctx context.Context, db *mongo.Database, scope bson.M) (decimal.Decimal, error) {
	f, err := LoanFundPosition(ctx, db, scope)
	if err != nil {
		return decimal.Zero, err
	}
	return f.Available, nil
}

// LoanStatusCounts returns the number of live loans per status in scope.
func LoanStatusCounts(ctx context.Context, db *mongo.Database, scope bson.M) (map[string]int64, error) {
	rows, err := aggregate(ctx, db.Collection(collLoans), []bson.M{
		{"$match": live(scope)},
		{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for _, r := range rows {
		if r.Key != nil {
			out[*r.Key] = r.Count
		}
	}
	return out, nil
}

// signed sums inbound minus outbound of field.
func signed(field string) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{"$type", models.MovementOutbound}},
		bson.M{"$multiply": bson.A{bson.M{"$toDecimal": bson.M{"$ifNull": bson.A{field, 0}}}, -1}},
		bson.M{"$toDecimal": bson.M{"$ifNull": bson.A{field, 0}}},
	}}}
}

// WarehouseStock returns inbound minus outbound quantity of item over
// product movements in scope. item is the normalized item key.
func WarehouseStock(ctx context.Context, db *mongo.Database, scope bson.M, item string) (decimal.Decimal, error) {
	rows, err := aggregate(ctx, db.Collection(collMovements), []bson.M{
		{"$match": live(scope, bson.M{"category": models.MovementProduct, "item_name": item})},
		{"$group": bson.M{"_id": nil, "a": signed("$quantity")}},
	})
	if err != nil {
		return decimal.Zero, err
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return toDecimal(rows[0].A), nil
}

// WarehouseStockByItem returns the stock of every item with movements in scope.
func WarehouseStockByItem(ctx context.Context, db *mongo.Database, scope bson.M) (map[string]decimal.Decimal, error) {
	rows, err := aggregate(ctx, db.Collection(collMovements), []bson.M{
		{"$match": live(scope, bson.M{"category": models.MovementProduct})},
		{"$group": bson.M{"_id": "$item_name", "a": signed("$quantity")}},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		if r.Key == nil {
			continue
		}
		out[*r.Key] = toDecimal(r.A)
	}
	return out, nil
}

// WarehouseCash returns inbound minus outbound value over cash movements in scope.
func WarehouseCash(ctx context.Context, db *mongo.Database, scope bson.M) (decimal.Decimal, error) {
	rows, err := aggregate(ctx, db.Collection(collMovements), []bson.M{
		{"$match": live(scope, bson.M{"category": models.MovementCash})},
		{"$group": bson.M{"_id": nil, "a": signed("$value")}},
	})
	if err != nil {
		return decimal.Zero, err
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return toDecimal(rows[0].A), nil
}

// ProductBalanceFromLog replays the live operation log of a product,
// including transform rows that produced it, and returns the counters the
// log implies. For a consistent product this equals its stored counters.
func ProductBalanceFromLog(ctx context.Context, db *mongo.Database, productID primitive.ObjectID) (effects.Delta, error) {
	filter := bson.M{
		"deleted_at": nil,
		"$or": bson.A{
			bson.M{"product_id": productID},
			bson.M{"target_product_id": productID},
		},
	}
	cur, err := db.Collection(collOperations).Find(ctx, filter)
	if err != nil {
		return effects.Delta{}, err
	}
	defer cur.Close(ctx)

	var ops []models.ProductOperation
	if err := cur.All(ctx, &ops); err != nil {
		return effects.Delta{}, err
	}
	return effects.Fold(productID, ops), nil
}

// Treasury is the income and expense position for a scope.
type Treasury struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// TreasuryBalance returns income, expense and their difference in scope.
func TreasuryBalance(ctx context.Context, db *mongo.Database, scope bson.M) (Treasury, error) {
	rows, err := aggregate(ctx, db.Collection(collTreasury), []bson.M{
		{"$match": branchpolicy.Scope(scope)},
		{"$group": bson.M{"_id": "$type", "a": decSum("$amount")}},
	})
	if err != nil {
		return Treasury{}, err
	}
	t := Treasury{Income: decimal.Zero, Expense: decimal.Zero}
	for _, r := range rows {
		if r.Key == nil {
			continue
		}
		switch *r.Key {
		case models.TxnIncome:
			t.Income = toDecimal(r.A)
		case models.TxnExpense:
			t.Expense = toDecimal(r.A)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t, nil
}

// DonorTotal is what the treasury log says a donor has given.
type DonorTotal struct {
	Amount decimal.Decimal
	Count  int64
}

// DonorTotalsFromLog sums income transactions per linked donor across all
// branches. Donors are global, so no scope applies.
func DonorTotalsFromLog(ctx context.Context, db *mongo.Database) (map[primitive.ObjectID]DonorTotal, error) {
	cur, err := db.Collection(collTreasury).Aggregate(ctx, []bson.M{
		{"$match": bson.M{"type": models.TxnIncome, "donor_id": bson.M{"$ne": nil}}},
		{"$group": bson.M{"_id": "$donor_id", "a": decSum("$amount"), "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[primitive.ObjectID]DonorTotal{}
	for cur.Next(ctx) {
		var row struct {
			ID    primitive.ObjectID   `bson:"_id"`
			A     primitive.Decimal128 `bson:"a"`
			Count int64                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = DonorTotal{Amount: toDecimal(row.A), Count: row.Count}
	}
	return out, cur.Err()
}

// Summary is the branch dashboard, built from one scope.
type Summary struct {
	LoanFund      LoanFund                   `json:"loan_fund"`
	LoansByStatus map[string]int64           `json:"loans_by_status"`
	WarehouseCash decimal.Decimal            `json:"warehouse_cash"`
	StockByItem   map[string]decimal.Decimal `json:"stock_by_item"`
	Treasury      Treasury                   `json:"treasury"`
}

// BranchSummary collects every balance for scope.
func BranchSummary(ctx context.Context, db *mongo.Database, scope bson.M) (Summary, error) {
	var s Summary
	var err error
	if s.LoanFund, err = LoanFundPosition(ctx, db, scope); err != nil {
		return Summary{}, err
	}
	if s.LoansByStatus, err = LoanStatusCounts(ctx, db, scope); err != nil {
		return Summary{}, err
	}
	if s.WarehouseCash, err = WarehouseCash(ctx, db, scope); err != nil {
		return Summary{}, err
	}
	if s.StockByItem, err = WarehouseStockByItem(ctx, db, scope); err != nil {
		return Summary{}, err
	}
	if s.Treasury, err = TreasuryBalance(ctx, db, scope); err != nil {
		return Summary{}, err
	}
	return s, nil
}
