package game

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/errors"
)

func TestProcessTurnRequiresInitializedGame(t *testing.T) {
	f := newGameFixture(t, 31)

	_, err := f.svc.ProcessTurn(context.Background())
	if !errors.IsCode(err, errors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT without a player company, got %v", err)
	}
}

func TestProcessTurnSingleSellerSettlesLedger(t *testing.T) {
	f := newGameFixture(t, 31)
	ctx := context.Background()
	f.seedState(t, 1, 2026)
	companyID := f.seedCompany(t, "Solo Corp", 100000, true)
	product := f.seedProduct(t, "SKU-1", "Plain Widget", 10, 20)
	f.list(t, companyID, product.ID, 20)
	f.stock(t, companyID, product.ID, 100000, 10)

	cashBefore, err := f.books.CompanyCash(ctx, companyID)
	if err != nil {
		t.Fatalf("failed to read cash: %v", err)
	}

	result, err := f.svc.ProcessTurn(ctx)
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if result.Month != 2 || result.Year != 2026 {
		t.Fatalf("advanced to %d/%d, want 2/2026", result.Month, result.Year)
	}
	if result.RunID == "" {
		t.Fatal("expected a run id")
	}
	if len(result.Logs) == 0 {
		t.Fatal("expected turn logs")
	}

	var history models.MarketHistory
	if err := f.conn.Where("company_id = ? AND month = ? AND year = ?", companyID, 1, 2026).
		First(&history).Error; err != nil {
		t.Fatalf("failed to load history: %v", err)
	}

	// A lone seller at the average price captures the whole truncated
	// demand draw; random events only scale that draw, never the ledger
	// arithmetic hanging off it.
	if history.UnitsSold != int(history.DemandCaptured) {
		t.Fatalf("units sold %d != truncated demand %.2f", history.UnitsSold, history.DemandCaptured)
	}
	if history.UnitsSold < 500 || history.UnitsSold > 1700 {
		t.Fatalf("units sold %d outside plausible demand band", history.UnitsSold)
	}
	wantRevenue := float64(history.UnitsSold) * 20
	if math.Abs(history.Revenue-wantRevenue) > 0.01 {
		t.Fatalf("revenue = %.2f, want %.2f", history.Revenue, wantRevenue)
	}

	cashAfter, err := f.books.CompanyCash(ctx, companyID)
	if err != nil {
		t.Fatalf("failed to read cash: %v", err)
	}
	if math.Abs((cashAfter-cashBefore)-wantRevenue) > 0.01 {
		t.Fatalf("cash moved %.2f, want revenue %.2f", cashAfter-cashBefore, wantRevenue)
	}

	wantCOGS := float64(history.UnitsSold) * 10
	netIncome, err := f.books.NetIncome(ctx, companyID)
	if err != nil {
		t.Fatalf("failed to read net income: %v", err)
	}
	if math.Abs(netIncome-(wantRevenue-wantCOGS)) > 0.01 {
		t.Fatalf("net income = %.2f, want %.2f", netIncome, wantRevenue-wantCOGS)
	}

	var item models.InventoryItem
	if err := f.conn.Where("company_id = ? AND product_id = ?", companyID, product.ID).
		First(&item).Error; err != nil {
		t.Fatalf("failed to load stock: %v", err)
	}
	if item.Quantity != 100000-history.UnitsSold {
		t.Fatalf("stock = %d, want %d", item.Quantity, 100000-history.UnitsSold)
	}
	if math.Abs(item.WAC-10) > 0.0001 {
		t.Fatalf("WAC moved to %.4f on a sale, want 10.0", item.WAC)
	}
}

func TestProcessTurnStockoutSellsWhatIsAvailable(t *testing.T) {
	f := newGameFixture(t, 32)
	ctx := context.Background()
	f.seedState(t, 1, 2026)
	companyID := f.seedCompany(t, "Thin Corp", 100000, true)
	product := f.seedProduct(t, "SKU-1", "Plain Widget", 10, 20)
	f.list(t, companyID, product.ID, 20)
	f.stock(t, companyID, product.ID, 10, 10)

	result, err := f.svc.ProcessTurn(ctx)
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	var history models.MarketHistory
	if err := f.conn.Where("company_id = ? AND month = ? AND year = ?", companyID, 1, 2026).
		First(&history).Error; err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if history.UnitsSold != 10 {
		t.Fatalf("units sold = %d, want the full 10 on hand", history.UnitsSold)
	}

	var item models.InventoryItem
	if err := f.conn.Where("company_id = ?", companyID).First(&item).Error; err != nil {
		t.Fatalf("failed to load stock: %v", err)
	}
	if item.Quantity != 0 {
		t.Fatalf("stock = %d, want 0 after the stockout", item.Quantity)
	}

	joined := strings.Join(result.Logs, "\n")
	if !strings.Contains(joined, "stocked out") {
		t.Fatalf("expected a stockout line in the turn log, got:\n%s", joined)
	}
}

func TestProcessTurnChargesWarehouseRent(t *testing.T) {
	f := newGameFixture(t, 33)
	ctx := context.Background()
	f.seedState(t, 1, 2026)
	companyID := f.seedCompany(t, "Renter Corp", 100000, true)
	warehouse := models.Warehouse{
		CompanyID: companyID, Name: "Main Warehouse", Location: "Central",
		Capacity: 1000, MonthlyCost: 5000,
	}
	if err := f.conn.Create(&warehouse).Error; err != nil {
		t.Fatalf("failed to seed warehouse: %v", err)
	}

	if _, err := f.svc.ProcessTurn(ctx); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	cash, err := f.books.CompanyCash(ctx, companyID)
	if err != nil {
		t.Fatalf("failed to read cash: %v", err)
	}
	if math.Abs(cash-95000) > 0.01 {
		t.Fatalf("cash = %.2f, want 95000.00 after rent", cash)
	}
	rent, err := f.books.AccountBalance(ctx, companyID, "5100")
	if err != nil {
		t.Fatalf("failed to read rent expense: %v", err)
	}
	if math.Abs(rent-5000) > 0.01 {
		t.Fatalf("rent expense = %.2f, want 5000.00", rent)
	}
}

func TestProcessTurnWritesSnapshots(t *testing.T) {
	f := newGameFixture(t, 34)
	ctx := context.Background()
	f.seedState(t, 1, 2026)
	companyID := f.seedCompany(t, "Snap Corp", 100000, true)
	product := f.seedProduct(t, "SKU-1", "Plain Widget", 10, 20)
	f.stock(t, companyID, product.ID, 100, 10)

	if _, err := f.svc.ProcessTurn(ctx); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	var snapshot models.FinancialSnapshot
	if err := f.conn.Where("company_id = ? AND month = ? AND year = ?", companyID, 1, 2026).
		First(&snapshot).Error; err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}
	if math.Abs(snapshot.CashBalance-100000) > 0.01 {
		t.Fatalf("snapshot cash = %.2f, want 100000.00", snapshot.CashBalance)
	}
	if math.Abs(snapshot.InventoryValue-1000) > 0.01 {
		t.Fatalf("snapshot inventory = %.2f, want 1000.00", snapshot.InventoryValue)
	}
	if math.Abs(snapshot.TotalAssets-101000) > 0.01 {
		t.Fatalf("snapshot assets = %.2f, want 101000.00", snapshot.TotalAssets)
	}
	if snapshot.TotalEquity != snapshot.TotalAssets {
		t.Fatalf("equity %.2f != assets %.2f", snapshot.TotalEquity, snapshot.TotalAssets)
	}
}

func TestProcessTurnCleanupIsIdempotent(t *testing.T) {
	f := newGameFixture(t, 35)
	ctx := context.Background()
	f.seedState(t, 1, 2026)
	companyID := f.seedCompany(t, "Retry Corp", 100000, true)
	product := f.seedProduct(t, "SKU-1", "Plain Widget", 10, 20)
	f.list(t, companyID, product.ID, 20)
	f.stock(t, companyID, product.ID, 100000, 10)

	if _, err := f.svc.ProcessTurn(ctx); err != nil {
		t.Fatalf("first ProcessTurn failed: %v", err)
	}

	// Rewind the calendar and replay the same month, as a retrying caller
	// would after a failure it could not attribute.
	if err := f.conn.Model(&models.GameState{}).
		Where("1 = 1").
		Updates(map[string]any{"current_month": 1, "current_year": 2026}).Error; err != nil {
		t.Fatalf("failed to rewind calendar: %v", err)
	}
	if _, err := f.svc.ProcessTurn(ctx); err != nil {
		t.Fatalf("second ProcessTurn failed: %v", err)
	}

	var histories int64
	if err := f.conn.Model(&models.MarketHistory{}).
		Where("month = ? AND year = ?", 1, 2026).
		Count(&histories).Error; err != nil {
		t.Fatalf("failed to count history: %v", err)
	}
	if histories != 1 {
		t.Fatalf("expected 1 history row for the replayed month, got %d", histories)
	}
	var snapshots int64
	if err := f.conn.Model(&models.FinancialSnapshot{}).
		Where("month = ? AND year = ?", 1, 2026).
		Count(&snapshots).Error; err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	if snapshots != 1 {
		t.Fatalf("expected 1 snapshot row for the replayed month, got %d", snapshots)
	}
}

func TestProcessTurnWrapsYearAndDecaysBrand(t *testing.T) {
	f := newGameFixture(t, 36)
	ctx := context.Background()
	f.seedState(t, 12, 2026)
	companyID := f.seedCompany(t, "Brand Corp", 100000, true)
	if err := f.conn.Model(&models.Company{}).
		Where("id = ?", companyID).
		Update("brand_equity", 2.0).Error; err != nil {
		t.Fatalf("failed to set brand equity: %v", err)
	}

	result, err := f.svc.ProcessTurn(ctx)
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if result.Month != 1 || result.Year != 2027 {
		t.Fatalf("advanced to %d/%d, want 1/2027", result.Month, result.Year)
	}
	joined := strings.Join(result.Events, "\n")
	if !strings.Contains(joined, "2027") {
		t.Fatalf("expected a new-year event line, got: %q", joined)
	}

	var company models.Company
	if err := f.conn.First(&company, companyID).Error; err != nil {
		t.Fatalf("failed to load company: %v", err)
	}
	if math.Abs(company.BrandEquity-1.9) > 0.0001 {
		t.Fatalf("brand equity = %.4f, want 1.9 after decay", company.BrandEquity)
	}
}

func TestProcessTurnFullEconomyRuns(t *testing.T) {
	f := newGameFixture(t, 37)
	ctx := context.Background()

	playerID, err := f.svc.InitializeGame(ctx)
	if err != nil {
		t.Fatalf("InitializeGame failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := f.svc.ProcessTurn(ctx); err != nil {
			t.Fatalf("turn %d failed: %v", i+1, err)
		}
	}

	state, err := f.svc.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if state.CurrentMonth != 4 || state.CurrentYear != 2026 {
		t.Fatalf("state = %d/%d after 3 turns, want 4/2026", state.CurrentMonth, state.CurrentYear)
	}

	// Every company's books must still balance to zero across all accounts.
	companies, err := NewRepository(f.conn).Companies(ctx)
	if err != nil {
		t.Fatalf("failed to load companies: %v", err)
	}
	for _, company := range companies {
		balances, err := f.books.AccountBalances(ctx, company.ID)
		if err != nil {
			t.Fatalf("failed to read balances: %v", err)
		}
		total := 0.0
		for _, balance := range balances {
			total += balance.Balance
		}
		if math.Abs(total) > 0.05 {
			t.Fatalf("company %s trial balance off by %.4f", company.Name, total)
		}
	}

	// Bots sold from their bootstrap stock, so history exists for them too.
	var botHistory int64
	if err := f.conn.Model(&models.MarketHistory{}).
		Where("company_id <> ?", playerID).
		Count(&botHistory).Error; err != nil {
		t.Fatalf("failed to count bot history: %v", err)
	}
	if botHistory == 0 {
		t.Fatal("expected bot sales history after 3 turns")
	}

	var snapshots int64
	if err := f.conn.Model(&models.FinancialSnapshot{}).Count(&snapshots).Error; err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	if snapshots != int64(3*len(companies)) {
		t.Fatalf("expected %d snapshots, got %d", 3*len(companies), snapshots)
	}
}
