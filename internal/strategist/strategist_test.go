package strategist

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/events"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/inventory"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	dbtypes "github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/types"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/rng"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/turnlog"
)

// recordingPurchaser satisfies InventoryPurchaser and also applies the
// purchase so downstream reads see the stock.
type recordingPurchaser struct {
	planner inventory.Planner
	books   ledger.Service
	calls   []purchaseCall
}

type purchaseCall struct {
	companyID int64
	productID int64
	quantity  int
	unitCost  float64
}

func (p *recordingPurchaser) PurchaseInventory(ctx context.Context, companyID, productID int64, quantity int, unitCost float64) error {
	p.calls = append(p.calls, purchaseCall{companyID, productID, quantity, unitCost})
	if _, err := p.planner.ReceiveStock(ctx, companyID, productID, quantity, unitCost); err != nil {
		return err
	}
	total := float64(quantity) * unitCost
	_, err := p.books.CreateTransaction(ctx, ledger.RecordTransactionInput{
		CompanyID:   companyID,
		Description: "test restock",
		Entries: []ledger.EntryInput{
			{AccountCode: enums.AccountCodeInventory, Amount: total},
			{AccountCode: enums.AccountCodeCash, Amount: -total},
		},
	})
	return err
}

type botFixture struct {
	strat     *Strategist
	purchaser *recordingPurchaser
	books     ledger.Service
	planner   inventory.Planner
	conn      *gorm.DB
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	books, err := ledger.NewService(db.FromConn(conn), ledger.NewRepository(conn))
	if err != nil {
		t.Fatalf("failed to build ledger: %v", err)
	}
	planner, err := inventory.NewPlanner(inventory.NewRepository(conn))
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}
	rand := rng.New(21)
	engine, err := events.NewEngine(events.NewRepository(conn), rand, nil)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	purchaser := &recordingPurchaser{planner: planner, books: books}
	strat, err := NewStrategist(NewRepository(conn), planner, books, engine, purchaser, rand)
	if err != nil {
		t.Fatalf("failed to build strategist: %v", err)
	}
	return &botFixture{strat: strat, purchaser: purchaser, books: books, planner: planner, conn: conn}
}

// seedBot creates a bot with a chosen id so the personality is deterministic.
func (f *botFixture) seedBot(t *testing.T, id int64, cash float64) *models.Company {
	t.Helper()
	company := &models.Company{ID: id, Name: "Bot", BrandEquity: 1.0, StrategyMemory: dbtypes.NewStrategyMemory()}
	if err := f.conn.Create(company).Error; err != nil {
		t.Fatalf("failed to seed bot: %v", err)
	}
	ctx := context.Background()
	if err := f.books.InitializeChartOfAccounts(ctx, company.ID); err != nil {
		t.Fatalf("failed to init chart: %v", err)
	}
	if cash > 0 {
		if _, err := f.books.RecordCashInvestment(ctx, company.ID, cash); err != nil {
			t.Fatalf("failed to seed cash: %v", err)
		}
	}
	return company
}

func (f *botFixture) seedProduct(t *testing.T, name string, baseCost, basePrice float64) models.Product {
	t.Helper()
	product := models.Product{SKU: name, Name: name, BaseCost: baseCost, BasePrice: basePrice}
	if err := f.conn.Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func (f *botFixture) list(t *testing.T, companyID, productID int64, price float64) {
	t.Helper()
	if err := f.conn.Create(&models.CompanyProduct{CompanyID: companyID, ProductID: productID, Price: price}).Error; err != nil {
		t.Fatalf("failed to list product: %v", err)
	}
}

func TestRunTurnPricesWithinPersonalityBand(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	// id 4 -> premium (4 % 3 == 1)
	bot := f.seedBot(t, 4, 100000)
	product := f.seedProduct(t, "Premium Gadget", 50, 120)
	f.list(t, bot.ID, product.ID, 0)

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, turnlog.New(nil)); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	var listing models.CompanyProduct
	if err := f.conn.Where("company_id = ?", bot.ID).First(&listing).Error; err != nil {
		t.Fatalf("reload listing failed: %v", err)
	}
	// premium: cost 50 x 1.50 jittered 5% either way
	lo, hi := 50*1.50*0.95, 50*1.50*1.05
	if listing.Price < lo || listing.Price > hi {
		t.Fatalf("price %.2f outside premium band [%.2f, %.2f]", listing.Price, lo, hi)
	}
}

func TestPriceFlooredAtViableMarginOverWAC(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	// id 3 -> aggressive (15% margin)
	bot := f.seedBot(t, 3, 100000)
	product := f.seedProduct(t, "Costly Item", 10, 30)
	f.list(t, bot.ID, product.ID, 0)

	// stock bought far above base cost drags the floor up
	if _, err := f.planner.ReceiveStock(ctx, bot.ID, product.ID, 1000, 40); err != nil {
		t.Fatalf("failed to stock: %v", err)
	}

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	var listing models.CompanyProduct
	if err := f.conn.Where("company_id = ?", bot.ID).First(&listing).Error; err != nil {
		t.Fatalf("reload listing failed: %v", err)
	}
	if listing.Price < 40*1.05 {
		t.Fatalf("price %.2f below WAC floor %.2f", listing.Price, 40*1.05)
	}
}

func TestRestockSkippedWhenCashLow(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	bot := f.seedBot(t, 3, 9000) // below the restock threshold
	product := f.seedProduct(t, "Basic Widget", 10, 20)
	f.list(t, bot.ID, product.ID, 15)

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if len(f.purchaser.calls) != 0 {
		t.Fatalf("expected no purchases below cash floor, got %v", f.purchaser.calls)
	}
}

func TestRestockSkippedWhenBreakEvenFarAboveMarket(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	// id 4 -> premium: break-even = 100 x 1.50 = 150, anchor 100 -> gap 50%
	bot := f.seedBot(t, 4, 100000)
	product := f.seedProduct(t, "Marginal Item", 100, 100)
	f.list(t, bot.ID, product.ID, 110)

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if len(f.purchaser.calls) != 0 {
		t.Fatalf("expected viability skip, got purchases %v", f.purchaser.calls)
	}
}

func TestRestockBuysFullWhenProfitable(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	// id 3 -> aggressive: break-even 10 x 1.15 = 11.5 < anchor 20 -> full buy
	bot := f.seedBot(t, 3, 100000)
	product := f.seedProduct(t, "Plain Widget", 10, 20)
	f.list(t, bot.ID, product.ID, 15)

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if len(f.purchaser.calls) != 1 {
		t.Fatalf("expected one purchase, got %v", f.purchaser.calls)
	}
	call := f.purchaser.calls[0]
	// forecast 300, safety 60 padded 18% by the fresh stockout, current 0
	if call.quantity != 371 {
		t.Fatalf("quantity = %d, want 371", call.quantity)
	}
	if call.unitCost != 10 {
		t.Fatalf("unit cost = %f, want base cost 10", call.unitCost)
	}
}

func TestRestockCappedByAffordableCash(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	bot := f.seedBot(t, 3, 11000)
	product := f.seedProduct(t, "Pricey Widget", 100, 200)
	f.list(t, bot.ID, product.ID, 150)

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if len(f.purchaser.calls) != 1 {
		t.Fatalf("expected one purchase, got %v", f.purchaser.calls)
	}
	if got := f.purchaser.calls[0].quantity; got != 110 {
		t.Fatalf("quantity = %d, want affordable cap 110", got)
	}
}

func TestBrandingSpendsBudgetAndGrowsEquity(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	// id 4 -> premium, 6% marketing
	bot := f.seedBot(t, 4, 100000)

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	var reloaded models.Company
	if err := f.conn.First(&reloaded, bot.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.BrandEquity <= 1.0 {
		t.Fatalf("brand equity = %f, want growth above 1.0", reloaded.BrandEquity)
	}

	spent, err := f.books.AccountBalance(ctx, bot.ID, enums.AccountCodeMarketingExpense)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if spent != 6000 {
		t.Fatalf("marketing spend = %f, want 6000 (6%% of 100k)", spent)
	}
	wantEquity := 1.0 + 6000.0/10000.0
	if reloaded.BrandEquity != wantEquity {
		t.Fatalf("brand equity = %f, want %f", reloaded.BrandEquity, wantEquity)
	}
}

func TestBrandingSkippedWhenPoor(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	bot := f.seedBot(t, 4, 4000)

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	spent, err := f.books.AccountBalance(ctx, bot.ID, enums.AccountCodeMarketingExpense)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if spent != 0 {
		t.Fatalf("marketing spend = %f, want 0 below cash floor", spent)
	}
}

func TestStockoutLearningPadsMemory(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	bot := f.seedBot(t, 3, 100000)
	product := f.seedProduct(t, "Basic Widget", 10, 20)
	f.list(t, bot.ID, product.ID, 15)

	// zero inventory at turn start counts as a stockout
	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	var reloaded models.Company
	if err := f.conn.First(&reloaded, bot.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	severity := reloaded.StrategyMemory.TotalStockoutSeverity()
	// recorded at 1.0, then decayed by 0.1
	if severity < 0.89 || severity > 0.91 {
		t.Fatalf("severity = %f, want 0.9", severity)
	}
}

func TestAggressiveBotTrimsMarketingAfterRepeatedStockouts(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	bot := f.seedBot(t, 3, 100000) // aggressive
	product := f.seedProduct(t, "Basic Widget", 10, 20)
	f.list(t, bot.ID, product.ID, 15)

	// preload severity above the trim threshold
	bot.StrategyMemory.Stockouts = map[int64]float64{product.ID: 4}
	if err := f.conn.Save(bot).Error; err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := f.strat.RunTurn(ctx, bot.ID, 1, 2026, nil); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	var reloaded models.Company
	if err := f.conn.First(&reloaded, bot.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.StrategyMemory.MarketingBudgetPct == nil {
		t.Fatal("expected a marketing budget override after repeated stockouts")
	}
	if got := *reloaded.StrategyMemory.MarketingBudgetPct; got != 0.0 {
		t.Fatalf("budget = %f, want 0.0 (2%% trimmed by 2 points)", got)
	}
	if len(reloaded.StrategyMemory.Adaptations) == 0 {
		t.Fatal("expected an adaptation entry")
	}
}
