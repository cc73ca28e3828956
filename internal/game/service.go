package game

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/events"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/inventory"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/market"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/strategist"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/config"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	dbtypes "github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/types"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/errors"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/metrics"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/rng"
)

const (
	defaultStartingCapital = 100_000.00
	defaultBotCount        = 3

	startMonth = 1
	startYear  = 2026

	warehouseCapacity    = 1000
	warehouseMonthlyRent = 5000.00
)

// botNames seeds the competitor roster; counts past the list fall back to
// generated names.
var botNames = []string{"TechCorp Inc", "Global Traders", "SmartBiz Ltd"}

func botName(i int) string {
	if i < len(botNames) {
		return botNames[i]
	}
	return fmt.Sprintf("Venture %d LLC", i+1)
}

// productSeed is one catalog row created at game start.
type productSeed struct {
	sku       string
	name      string
	baseCost  float64
	basePrice float64
}

var productCatalog = []productSeed{
	{"WIDGET-001", "Basic Widget", 10.00, 20.00},
	{"GADGET-002", "Premium Gadget", 50.00, 100.00},
	{"TOOL-003", "Professional Tool", 30.00, 60.00},
}

// Service is the game lifecycle facade: it owns initialization, the turn
// loop, and the player-facing commands.
type Service interface {
	// InitializeGame wipes all state and seeds a fresh game, returning the
	// player company id.
	InitializeGame(ctx context.Context) (int64, error)
	LoadState(ctx context.Context) (*models.GameState, error)
	ProcessTurn(ctx context.Context) (*TurnResult, error)
	PurchaseInventory(ctx context.Context, companyID, productID int64, quantity int, unitCost float64) error
	SetPrice(ctx context.Context, companyID, productID int64, price float64) error
	PendingDecisionEvents(ctx context.Context) ([]events.PendingDecision, error)
	Decide(ctx context.Context, eventID int64, choiceID string, companyID int64) ([]events.EffectOutcome, error)
	// CompanySummaries lists every company with its derived cash balance.
	CompanySummaries(ctx context.Context) ([]CompanySummary, error)
}

// CompanySummary is the roster line reported alongside the game state.
type CompanySummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	IsPlayer    bool    `json:"is_player"`
	BrandEquity float64 `json:"brand_equity"`
	Cash        float64 `json:"cash"`
}

type service struct {
	client       *db.Client
	repo         Repository
	books        ledger.Service
	planner      inventory.Planner
	engine       *events.Engine
	sim          *market.Simulator
	bots         *strategist.Strategist
	rand         *rng.Source
	log          *logger.Logger
	turns        *metrics.TurnMetrics
	botCount     int
	startingCash float64
}

// NewService wires the orchestrator. The bot strategist is constructed here
// so its purchases route back through this service's posting logic. Zero
// values in simCfg fall back to the standard roster of 3 bots at $100,000.
func NewService(
	client *db.Client,
	repo Repository,
	books ledger.Service,
	planner inventory.Planner,
	engine *events.Engine,
	sim *market.Simulator,
	rand *rng.Source,
	log *logger.Logger,
	turns *metrics.TurnMetrics,
	simCfg config.SimConfig,
) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("game repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if planner == nil {
		return nil, fmt.Errorf("inventory planner required")
	}
	if engine == nil {
		return nil, fmt.Errorf("events engine required")
	}
	if sim == nil {
		return nil, fmt.Errorf("market simulator required")
	}
	if rand == nil {
		rand = rng.New(0)
	}
	if turns == nil {
		turns = metrics.NewTurnMetrics(nil)
	}
	bots, err := strategist.NewStrategist(
		strategist.NewRepository(client.DB()),
		planner,
		books,
		engine,
		purchaser{books: books, planner: planner},
		rand,
	)
	if err != nil {
		return nil, err
	}
	if simCfg.BotCount <= 0 {
		simCfg.BotCount = defaultBotCount
	}
	if simCfg.StartingCash <= 0 {
		simCfg.StartingCash = defaultStartingCapital
	}
	return &service{
		client:       client,
		repo:         repo,
		books:        books,
		planner:      planner,
		engine:       engine,
		sim:          sim,
		bots:         bots,
		rand:         rand,
		log:          log,
		turns:        turns,
		botCount:     simCfg.BotCount,
		startingCash: simCfg.StartingCash,
	}, nil
}

// purchaser posts an inventory purchase: Debit Inventory / Credit Cash, then
// folds the units into the stock row at weighted average cost. The zero
// value is unusable; bind books and planner to the enclosing transaction
// before handing it to the strategist.
type purchaser struct {
	books   ledger.Service
	planner inventory.Planner
}

func (p purchaser) PurchaseInventory(ctx context.Context, companyID, productID int64, quantity int, unitCost float64) error {
	if quantity <= 0 {
		return errors.New(errors.CodeValidation, "purchase quantity must be positive")
	}
	if unitCost < 0 {
		return errors.New(errors.CodeValidation, "unit cost cannot be negative")
	}
	total := math.Round(float64(quantity)*unitCost*100) / 100
	_, err := p.books.CreateTransaction(ctx, ledger.RecordTransactionInput{
		CompanyID:   companyID,
		Description: fmt.Sprintf("Purchase %d units", quantity),
		Entries: []ledger.EntryInput{
			{AccountCode: enums.AccountCodeInventory, Amount: total},
			{AccountCode: enums.AccountCodeCash, Amount: -total},
		},
	})
	if err != nil {
		return err
	}
	_, err = p.planner.ReceiveStock(ctx, companyID, productID, quantity, unitCost)
	return err
}

func (s *service) InitializeGame(ctx context.Context) (int64, error) {
	var playerID int64
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		books := s.books.WithTx(tx)
		planner := s.planner.WithTx(tx)

		if err := repo.ResetAll(ctx); err != nil {
			return fmt.Errorf("reset game state: %w", err)
		}
		if err := repo.SaveState(ctx, &models.GameState{
			CurrentMonth: startMonth,
			CurrentYear:  startYear,
		}); err != nil {
			return err
		}

		player := &models.Company{
			Name:           "Player Corp",
			IsPlayer:       true,
			BrandEquity:    1.0,
			StrategyMemory: dbtypes.NewStrategyMemory(),
		}
		if err := s.seedCompany(ctx, repo, books, player); err != nil {
			return err
		}
		playerID = player.ID

		if err := repo.CreateWarehouse(ctx, &models.Warehouse{
			CompanyID:   player.ID,
			Name:        "Main Warehouse",
			Location:    "Central",
			Capacity:    warehouseCapacity,
			MonthlyCost: warehouseMonthlyRent,
		}); err != nil {
			return err
		}

		var bots []models.Company
		for i := 0; i < s.botCount; i++ {
			bot := &models.Company{
				Name:           botName(i),
				BrandEquity:    1.0,
				StrategyMemory: dbtypes.NewStrategyMemory(),
			}
			if err := s.seedCompany(ctx, repo, books, bot); err != nil {
				return err
			}
			bots = append(bots, *bot)
		}

		var products []models.Product
		for _, seed := range productCatalog {
			product := &models.Product{
				SKU:       seed.sku,
				Name:      seed.name,
				BaseCost:  seed.baseCost,
				BasePrice: seed.basePrice,
			}
			if err := repo.CreateProduct(ctx, product); err != nil {
				return err
			}
			products = append(products, *product)
		}

		companies, err := repo.Companies(ctx)
		if err != nil {
			return err
		}
		for _, company := range companies {
			for _, product := range products {
				if err := repo.CreateListing(ctx, &models.CompanyProduct{
					CompanyID: company.ID,
					ProductID: product.ID,
					Price:     product.BasePrice,
				}); err != nil {
					return err
				}
			}
		}

		// Bots start with stock so month 1 is not a player walkover. With no
		// history yet, the reorder falls back to the default demand estimate.
		buy := purchaser{books: books, planner: planner}
		for _, bot := range bots {
			for _, product := range products {
				qty, err := planner.ReorderQuantity(ctx, bot.ID, product.ID, startMonth, startYear, nil)
				if err != nil {
					return err
				}
				if qty <= 0 {
					continue
				}
				if err := buy.PurchaseInventory(ctx, bot.ID, product.ID, qty, product.BaseCost); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if s.log != nil {
		s.log.Info(ctx, fmt.Sprintf("game initialized, player company %d", playerID))
	}
	return playerID, nil
}

func (s *service) seedCompany(ctx context.Context, repo Repository, books ledger.Service, company *models.Company) error {
	if err := repo.CreateCompany(ctx, company); err != nil {
		return err
	}
	if err := books.InitializeChartOfAccounts(ctx, company.ID); err != nil {
		return err
	}
	_, err := books.RecordCashInvestment(ctx, company.ID, s.startingCash)
	return err
}

// LoadState returns the calendar singleton, creating it at the start of the
// default calendar when no game has been initialized yet.
func (s *service) LoadState(ctx context.Context) (*models.GameState, error) {
	state, err := s.repo.State(ctx)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}
	state = &models.GameState{CurrentMonth: startMonth, CurrentYear: startYear}
	if err := s.repo.SaveState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) CompanySummaries(ctx context.Context) ([]CompanySummary, error) {
	companies, err := s.repo.Companies(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]CompanySummary, 0, len(companies))
	for _, company := range companies {
		cash, err := s.books.CompanyCash(ctx, company.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, CompanySummary{
			ID:          company.ID,
			Name:        company.Name,
			IsPlayer:    company.IsPlayer,
			BrandEquity: company.BrandEquity,
			Cash:        cash,
		})
	}
	return summaries, nil
}

func (s *service) PurchaseInventory(ctx context.Context, companyID, productID int64, quantity int, unitCost float64) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		buy := purchaser{books: s.books.WithTx(tx), planner: s.planner.WithTx(tx)}
		return buy.PurchaseInventory(ctx, companyID, productID, quantity, unitCost)
	})
}

func (s *service) SetPrice(ctx context.Context, companyID, productID int64, price float64) error {
	if price < 0 {
		return errors.New(errors.CodeValidation, "price cannot be negative").
			WithDetails(map[string]any{"price": price})
	}
	listing, err := s.repo.ListingFor(ctx, companyID, productID)
	if err != nil {
		return err
	}
	if listing == nil {
		return errors.New(errors.CodeNotFound, "no listing for this company and product")
	}
	listing.Price = price
	return s.repo.SaveListing(ctx, listing)
}

func (s *service) PendingDecisionEvents(ctx context.Context) ([]events.PendingDecision, error) {
	return s.engine.PendingDecisionEvents(ctx)
}

// Decide resolves a pending decision event for a company and applies the
// chosen effects: cash deltas post to the ledger, brand deltas adjust the
// company, duration windows are logged only.
func (s *service) Decide(ctx context.Context, eventID int64, choiceID string, companyID int64) ([]events.EffectOutcome, error) {
	var outcomes []events.EffectOutcome
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		books := s.books.WithTx(tx)
		engine := s.engine.WithTx(tx)

		company, err := repo.CompanyByID(ctx, companyID)
		if err != nil {
			return err
		}
		if company == nil {
			return errors.New(errors.CodeNotFound, "company not found").
				WithDetails(map[string]any{"company_id": companyID})
		}

		effects, err := engine.ResolveDecision(ctx, eventID, choiceID)
		if err != nil {
			return err
		}
		outcomes = engine.EvaluateEffects(effects)

		brandDelta := 0.0
		for _, outcome := range outcomes {
			if outcome.CashDelta != 0 {
				if err := s.postCashEffect(ctx, books, companyID, outcome); err != nil {
					return err
				}
			}
			brandDelta += outcome.BrandDelta
		}
		if brandDelta != 0 {
			company.BrandEquity += brandDelta
			// brand equity never drops below the 1.0 baseline
			if company.BrandEquity < 1.0 {
				company.BrandEquity = 1.0
			}
			if err := repo.SaveCompany(ctx, company); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// postCashEffect books a decision's cash consequence. Spends debit the
// logistics expense account; windfalls post as revenue.
func (s *service) postCashEffect(ctx context.Context, books ledger.Service, companyID int64, outcome events.EffectOutcome) error {
	amount := math.Abs(outcome.CashDelta)
	entries := []ledger.EntryInput{
		{AccountCode: enums.AccountCodeLogisticsExpense, Amount: amount},
		{AccountCode: enums.AccountCodeCash, Amount: -amount},
	}
	if outcome.CashDelta > 0 {
		entries = []ledger.EntryInput{
			{AccountCode: enums.AccountCodeCash, Amount: amount},
			{AccountCode: enums.AccountCodeSalesRevenue, Amount: -amount},
		}
	}
	_, err := books.CreateTransaction(ctx, ledger.RecordTransactionInput{
		CompanyID:   companyID,
		Description: outcome.Description,
		Entries:     entries,
	})
	return err
}
