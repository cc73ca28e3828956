package game

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/events"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/inventory"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/market"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/config"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	dbtypes "github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/types"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/errors"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/rng"
)

type gameFixture struct {
	svc     Service
	books   ledger.Service
	planner inventory.Planner
	conn    *gorm.DB
}

func newGameFixture(t *testing.T, seed int64) *gameFixture {
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

	client := db.FromConn(conn)
	books, err := ledger.NewService(client, ledger.NewRepository(conn))
	if err != nil {
		t.Fatalf("failed to build ledger: %v", err)
	}
	planner, err := inventory.NewPlanner(inventory.NewRepository(conn))
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}
	rand := rng.New(seed)
	engine, err := events.NewEngine(events.NewRepository(conn), rand, nil)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	sim, err := market.NewSimulator(market.NewRepository(conn), inventory.NewRepository(conn), books, rand, 1000)
	if err != nil {
		t.Fatalf("failed to build simulator: %v", err)
	}
	svc, err := NewService(client, NewRepository(conn), books, planner, engine, sim, rand, nil, nil, config.SimConfig{})
	if err != nil {
		t.Fatalf("failed to build game service: %v", err)
	}
	return &gameFixture{svc: svc, books: books, planner: planner, conn: conn}
}

func (f *gameFixture) seedCompany(t *testing.T, name string, cash float64, isPlayer bool) int64 {
	t.Helper()
	company := &models.Company{
		Name:           name,
		IsPlayer:       isPlayer,
		BrandEquity:    1.0,
		StrategyMemory: dbtypes.NewStrategyMemory(),
	}
	if err := f.conn.Create(company).Error; err != nil {
		t.Fatalf("failed to seed company: %v", err)
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
	return company.ID
}

func (f *gameFixture) seedProduct(t *testing.T, sku, name string, baseCost, basePrice float64) models.Product {
	t.Helper()
	product := models.Product{SKU: sku, Name: name, BaseCost: baseCost, BasePrice: basePrice}
	if err := f.conn.Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func (f *gameFixture) list(t *testing.T, companyID, productID int64, price float64) {
	t.Helper()
	listing := models.CompanyProduct{CompanyID: companyID, ProductID: productID, Price: price}
	if err := f.conn.Create(&listing).Error; err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
}

func (f *gameFixture) stock(t *testing.T, companyID, productID int64, quantity int, wac float64) {
	t.Helper()
	item := models.InventoryItem{CompanyID: companyID, ProductID: productID, Quantity: quantity, WAC: wac}
	if err := f.conn.Create(&item).Error; err != nil {
		t.Fatalf("failed to seed stock: %v", err)
	}
}

func (f *gameFixture) seedState(t *testing.T, month, year int) {
	t.Helper()
	state := models.GameState{CurrentMonth: month, CurrentYear: year}
	if err := f.conn.Create(&state).Error; err != nil {
		t.Fatalf("failed to seed state: %v", err)
	}
}

func TestInitializeGameSeedsFullEconomy(t *testing.T) {
	f := newGameFixture(t, 7)
	ctx := context.Background()

	playerID, err := f.svc.InitializeGame(ctx)
	if err != nil {
		t.Fatalf("InitializeGame failed: %v", err)
	}
	if playerID == 0 {
		t.Fatal("expected a player company id")
	}

	var companies []models.Company
	if err := f.conn.Order("id").Find(&companies).Error; err != nil {
		t.Fatalf("failed to load companies: %v", err)
	}
	if len(companies) != 4 {
		t.Fatalf("expected 1 player + 3 bots, got %d companies", len(companies))
	}

	for _, company := range companies {
		var accountCount int64
		if err := f.conn.Model(&models.Account{}).
			Where("company_id = ?", company.ID).
			Count(&accountCount).Error; err != nil {
			t.Fatalf("failed to count accounts: %v", err)
		}
		if accountCount != 13 {
			t.Fatalf("company %s has %d accounts, want 13", company.Name, accountCount)
		}
	}

	playerCash, err := f.books.CompanyCash(ctx, playerID)
	if err != nil {
		t.Fatalf("failed to read player cash: %v", err)
	}
	if math.Abs(playerCash-100000) > 0.01 {
		t.Fatalf("player cash = %.2f, want 100000.00", playerCash)
	}

	var playerItems int64
	if err := f.conn.Model(&models.InventoryItem{}).
		Where("company_id = ?", playerID).
		Count(&playerItems).Error; err != nil {
		t.Fatalf("failed to count player stock: %v", err)
	}
	if playerItems != 0 {
		t.Fatalf("player starts with %d stock rows, want 0", playerItems)
	}

	// With no sales history the planner falls back to a 300-unit forecast
	// and a 20 percent safety buffer, so every bot bootstraps 360 units per
	// product at base cost: 360 x (10 + 50 + 30) = 32,400 spent.
	for _, company := range companies {
		if company.IsPlayer {
			continue
		}
		var items []models.InventoryItem
		if err := f.conn.Where("company_id = ?", company.ID).Find(&items).Error; err != nil {
			t.Fatalf("failed to load bot stock: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("bot %s holds %d products, want 3", company.Name, len(items))
		}
		for _, item := range items {
			if item.Quantity != 360 {
				t.Fatalf("bot %s holds %d units, want 360", company.Name, item.Quantity)
			}
		}
		botCash, err := f.books.CompanyCash(ctx, company.ID)
		if err != nil {
			t.Fatalf("failed to read bot cash: %v", err)
		}
		if math.Abs(botCash-67600) > 0.01 {
			t.Fatalf("bot %s cash = %.2f, want 67600.00", company.Name, botCash)
		}
	}

	var listings int64
	if err := f.conn.Model(&models.CompanyProduct{}).Count(&listings).Error; err != nil {
		t.Fatalf("failed to count listings: %v", err)
	}
	if listings != 12 {
		t.Fatalf("expected 4 companies x 3 products = 12 listings, got %d", listings)
	}

	state, err := f.svc.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if state.CurrentMonth != 1 || state.CurrentYear != 2026 {
		t.Fatalf("state = %d/%d, want 1/2026", state.CurrentMonth, state.CurrentYear)
	}
}

func TestInitializeGameResetsPreviousRun(t *testing.T) {
	f := newGameFixture(t, 8)
	ctx := context.Background()

	firstPlayer, err := f.svc.InitializeGame(ctx)
	if err != nil {
		t.Fatalf("first InitializeGame failed: %v", err)
	}
	secondPlayer, err := f.svc.InitializeGame(ctx)
	if err != nil {
		t.Fatalf("second InitializeGame failed: %v", err)
	}
	if firstPlayer == secondPlayer {
		t.Fatal("expected a fresh player company on re-initialization")
	}

	var companies int64
	if err := f.conn.Model(&models.Company{}).Count(&companies).Error; err != nil {
		t.Fatalf("failed to count companies: %v", err)
	}
	if companies != 4 {
		t.Fatalf("expected 4 companies after reset, got %d", companies)
	}
	var states int64
	if err := f.conn.Model(&models.GameState{}).Count(&states).Error; err != nil {
		t.Fatalf("failed to count states: %v", err)
	}
	if states != 1 {
		t.Fatalf("expected a single calendar row, got %d", states)
	}
}

func TestLoadStateCreatesDefaultCalendar(t *testing.T) {
	f := newGameFixture(t, 9)
	state, err := f.svc.LoadState(context.Background())
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if state.CurrentMonth != 1 || state.CurrentYear != 2026 {
		t.Fatalf("default state = %d/%d, want 1/2026", state.CurrentMonth, state.CurrentYear)
	}
}

func TestPurchaseInventoryPostsAndTracksWAC(t *testing.T) {
	f := newGameFixture(t, 10)
	ctx := context.Background()
	companyID := f.seedCompany(t, "Buyer Corp", 100000, true)
	product := f.seedProduct(t, "SKU-1", "Crate", 10, 20)

	if err := f.svc.PurchaseInventory(ctx, companyID, product.ID, 100, 10); err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}
	if err := f.svc.PurchaseInventory(ctx, companyID, product.ID, 100, 20); err != nil {
		t.Fatalf("second purchase failed: %v", err)
	}

	var item models.InventoryItem
	if err := f.conn.Where("company_id = ? AND product_id = ?", companyID, product.ID).
		First(&item).Error; err != nil {
		t.Fatalf("failed to load stock: %v", err)
	}
	if item.Quantity != 200 {
		t.Fatalf("quantity = %d, want 200", item.Quantity)
	}
	if math.Abs(item.WAC-15) > 0.0001 {
		t.Fatalf("WAC = %.4f, want 15.0", item.WAC)
	}

	cash, err := f.books.CompanyCash(ctx, companyID)
	if err != nil {
		t.Fatalf("failed to read cash: %v", err)
	}
	if math.Abs(cash-97000) > 0.01 {
		t.Fatalf("cash = %.2f, want 97000.00", cash)
	}
}

func TestPurchaseInventoryRejectsBadInput(t *testing.T) {
	f := newGameFixture(t, 11)
	ctx := context.Background()
	companyID := f.seedCompany(t, "Buyer Corp", 100000, true)
	product := f.seedProduct(t, "SKU-1", "Crate", 10, 20)

	err := f.svc.PurchaseInventory(ctx, companyID, product.ID, 0, 10)
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for zero quantity, got %v", err)
	}
	err = f.svc.PurchaseInventory(ctx, companyID, product.ID, 10, -1)
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for negative cost, got %v", err)
	}
}

func TestSetPrice(t *testing.T) {
	f := newGameFixture(t, 12)
	ctx := context.Background()
	companyID := f.seedCompany(t, "Seller Corp", 0, true)
	product := f.seedProduct(t, "SKU-1", "Crate", 10, 20)
	f.list(t, companyID, product.ID, 20)

	if err := f.svc.SetPrice(ctx, companyID, product.ID, 25.50); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	var listing models.CompanyProduct
	if err := f.conn.Where("company_id = ? AND product_id = ?", companyID, product.ID).
		First(&listing).Error; err != nil {
		t.Fatalf("failed to load listing: %v", err)
	}
	if listing.Price != 25.50 {
		t.Fatalf("price = %.2f, want 25.50", listing.Price)
	}

	err := f.svc.SetPrice(ctx, companyID, product.ID, -1)
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for negative price, got %v", err)
	}
	err = f.svc.SetPrice(ctx, companyID, 9999, 10)
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for missing listing, got %v", err)
	}
}

func TestDecideAppliesEffectsOnce(t *testing.T) {
	f := newGameFixture(t, 13)
	ctx := context.Background()
	companyID := f.seedCompany(t, "Decider Corp", 100000, true)

	payload := events.DecisionPayload{
		Template: "supplier_exclusivity",
		Title:    "Supplier offers exclusivity",
		Choices: []events.Choice{
			{
				ID:    "A",
				Label: "Sign the deal",
				Effects: []events.Effect{
					{Kind: enums.EffectCashDelta, Amount: -15000, Note: "exclusivity fee"},
					{Kind: enums.EffectBrandEquityDelta, Delta: 0.3, Note: "premium positioning"},
				},
			},
			{ID: "B", Label: "Decline"},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	event := models.MarketEvent{
		EventType:              enums.MarketEventDecision,
		StartMonth:             1,
		StartYear:              2026,
		DurationMonths:         2,
		Intensity:              1.0,
		Description:            "Supplier offers exclusivity",
		RequiresPlayerDecision: true,
		EventData:              data,
	}
	if err := f.conn.Create(&event).Error; err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}

	outcomes, err := f.svc.Decide(ctx, event.ID, "A", companyID)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 effect outcomes, got %d", len(outcomes))
	}

	cash, err := f.books.CompanyCash(ctx, companyID)
	if err != nil {
		t.Fatalf("failed to read cash: %v", err)
	}
	if math.Abs(cash-85000) > 0.01 {
		t.Fatalf("cash = %.2f, want 85000.00 after the fee", cash)
	}

	var company models.Company
	if err := f.conn.First(&company, companyID).Error; err != nil {
		t.Fatalf("failed to load company: %v", err)
	}
	if math.Abs(company.BrandEquity-1.3) > 0.0001 {
		t.Fatalf("brand equity = %.4f, want 1.3", company.BrandEquity)
	}

	_, err = f.svc.Decide(ctx, event.ID, "B", companyID)
	if !errors.IsCode(err, errors.CodeAlreadyDecided) {
		t.Fatalf("expected ALREADY_DECIDED on second resolution, got %v", err)
	}
}

func TestDecideNeverDropsBrandBelowBaseline(t *testing.T) {
	f := newGameFixture(t, 13)
	ctx := context.Background()
	companyID := f.seedCompany(t, "Decider Corp", 100000, true)

	payload := events.DecisionPayload{
		Template: "logistics_strike",
		Title:    "Carriers announce a strike",
		Choices: []events.Choice{
			{
				ID:    "A",
				Label: "Wait it out",
				Effects: []events.Effect{
					{Kind: enums.EffectBrandEquityDelta, Delta: -0.1, Note: "late deliveries"},
				},
			},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	event := models.MarketEvent{
		EventType:              enums.MarketEventDecision,
		StartMonth:             1,
		StartYear:              2026,
		DurationMonths:         2,
		Intensity:              1.0,
		Description:            "Carriers announce a strike",
		RequiresPlayerDecision: true,
		EventData:              data,
	}
	if err := f.conn.Create(&event).Error; err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}

	if _, err := f.svc.Decide(ctx, event.ID, "A", companyID); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	var company models.Company
	if err := f.conn.First(&company, companyID).Error; err != nil {
		t.Fatalf("failed to load company: %v", err)
	}
	// a penalty against a baseline company clamps at the 1.0 floor; turn
	// decay only moves values down toward it, never back up
	if company.BrandEquity != 1.0 {
		t.Fatalf("brand equity = %.4f, want clamp at the 1.0 floor", company.BrandEquity)
	}
}
