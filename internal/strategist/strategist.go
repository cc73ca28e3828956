// Package strategist implements the adaptive bot decision engine. Each bot
// carries a fixed personality and a persisted strategy memory that shifts its
// pricing, restocking and marketing over time.
package strategist

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/events"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/inventory"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/rng"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/turnlog"
)

const (
	// learning constants
	stockoutDecayStep   = 0.1
	regretDecayStep     = 0.5
	regretPriceRatio    = 1.10
	regretSellThrough   = 0.20
	wasteSellThrough    = 0.10
	highSeverity        = 3.0
	marketingTrimPoints = 0.02

	// restock viability
	minRestockCash = 10000.0
	// branding
	minBrandingCash  = 5000.0
	minBrandingSpend = 100.0
	brandPerDollar   = 1.0 / 10000.0
)

// profile is a personality's fixed strategy parameters.
type profile struct {
	targetMargin float64
	marketingPct float64
}

var profiles = map[enums.BotPersonality]profile{
	enums.PersonalityAggressive: {targetMargin: 0.15, marketingPct: 0.02},
	enums.PersonalityPremium:    {targetMargin: 0.50, marketingPct: 0.06},
	enums.PersonalityBalanced:   {targetMargin: 0.30, marketingPct: 0.04},
}

// InventoryPurchaser executes a stock purchase: post the ledger entries and
// fold the units into the buyer's stock at weighted average cost. The game
// service provides this.
type InventoryPurchaser interface {
	PurchaseInventory(ctx context.Context, companyID, productID int64, quantity int, unitCost float64) error
}

// Strategist runs each bot's turn: learn, price, restock, brand.
type Strategist struct {
	repo      Repository
	planner   inventory.Planner
	books     ledger.Service
	engine    *events.Engine
	purchaser InventoryPurchaser
	rand      *rng.Source
}

// NewStrategist wires a bot strategy engine.
func NewStrategist(repo Repository, planner inventory.Planner, books ledger.Service, engine *events.Engine, purchaser InventoryPurchaser, rand *rng.Source) (*Strategist, error) {
	if repo == nil {
		return nil, fmt.Errorf("strategist repository required")
	}
	if planner == nil {
		return nil, fmt.Errorf("inventory planner required")
	}
	if books == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if engine == nil {
		return nil, fmt.Errorf("events engine required")
	}
	if purchaser == nil {
		return nil, fmt.Errorf("inventory purchaser required")
	}
	if rand == nil {
		return nil, fmt.Errorf("random source required")
	}
	return &Strategist{repo: repo, planner: planner, books: books, engine: engine, purchaser: purchaser, rand: rand}, nil
}

// WithTx returns a strategist whose writes join the provided transaction. The
// purchaser is replaced because it is usually transaction-bound too.
func (s *Strategist) WithTx(tx *gorm.DB, purchaser InventoryPurchaser) *Strategist {
	if tx == nil {
		return s
	}
	if purchaser == nil {
		purchaser = s.purchaser
	}
	return &Strategist{
		repo:      s.repo.WithTx(tx),
		planner:   s.planner.WithTx(tx),
		books:     s.books.WithTx(tx),
		engine:    s.engine.WithTx(tx),
		purchaser: purchaser,
		rand:      s.rand,
	}
}

// RunTurn executes one bot's full decision sequence for the turn.
func (s *Strategist) RunTurn(ctx context.Context, companyID int64, month, year int, tlog *turnlog.Log) error {
	company, err := s.repo.CompanyByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return fmt.Errorf("company %d not found", companyID)
	}

	personality := enums.PersonalityFor(company.ID)
	prof := profiles[personality]
	if tlog != nil {
		tlog.Addf(ctx, "%s (%s) takes its turn", company.Name, personality)
	}

	listings, err := s.repo.ListingsByCompany(ctx, company.ID)
	if err != nil {
		return err
	}

	if err := s.learn(ctx, company, listings, prof, month, year, tlog); err != nil {
		return err
	}
	for i := range listings {
		product, err := s.repo.ProductByID(ctx, listings[i].ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			continue
		}
		if err := s.price(ctx, company, &listings[i], product, prof, tlog); err != nil {
			return err
		}
		if err := s.restock(ctx, company, product, prof, month, year, tlog); err != nil {
			return err
		}
	}
	if err := s.brand(ctx, company, prof, month, year, tlog); err != nil {
		return err
	}
	return s.repo.SaveCompany(ctx, company)
}

// learn folds the prior turn's outcomes into the bot's strategy memory.
func (s *Strategist) learn(ctx context.Context, company *models.Company, listings []models.CompanyProduct, prof profile, month, year int, tlog *turnlog.Log) error {
	memory := &company.StrategyMemory

	for _, listing := range listings {
		current, err := s.planner.CurrentInventory(ctx, company.ID, listing.ProductID)
		if err != nil {
			return err
		}
		if current == 0 {
			severity := memory.RecordStockout(listing.ProductID)
			if tlog != nil {
				tlog.Addf(ctx, "%s: stockout on product %d, severity now %.1f", company.Name, listing.ProductID, severity)
			}
		}

		last, err := s.repo.LastHistory(ctx, company.ID, listing.ProductID, month, year)
		if err != nil {
			return err
		}
		if last == nil {
			continue
		}
		avgPrice, err := s.repo.AverageListedPrice(ctx, listing.ProductID)
		if err != nil {
			return err
		}

		preSale := last.UnitsSold + current
		sellThrough := 0.0
		if preSale > 0 {
			sellThrough = float64(last.UnitsSold) / float64(preSale)
		}

		if avgPrice > 0 && last.Price > avgPrice*regretPriceRatio && sellThrough < regretSellThrough {
			memory.AccrueRegret(listing.ProductID)
		} else {
			memory.DecayRegret(listing.ProductID, regretDecayStep)
		}

		if sellThrough < wasteSellThrough {
			memory.RecordWaste(listing.ProductID)
		} else {
			memory.ResetWaste(listing.ProductID)
		}
	}

	memory.DecayStockouts(stockoutDecayStep)

	// repeated stockouts make an aggressive bot divert marketing money into
	// inventory depth
	if enums.PersonalityFor(company.ID) == enums.PersonalityAggressive &&
		memory.TotalStockoutSeverity() > highSeverity {
		current := prof.marketingPct
		if memory.MarketingBudgetPct != nil {
			current = *memory.MarketingBudgetPct
		}
		trimmed := current - marketingTrimPoints
		if trimmed < 0 {
			trimmed = 0
		}
		if memory.MarketingBudgetPct == nil || *memory.MarketingBudgetPct != trimmed {
			memory.MarketingBudgetPct = &trimmed
			memory.AddAdaptation(month, year, "repeated stockouts", "marketing budget trimmed to restock harder")
			if tlog != nil {
				tlog.Addf(ctx, "%s: trimming marketing to %.0f%% after repeated stockouts", company.Name, trimmed*100)
			}
		}
	}
	return nil
}

// marginOffset converts accumulated pricing regret into a margin concession.
func marginOffset(company *models.Company, productID int64) float64 {
	if company.StrategyMemory.Regret(productID) > 2 {
		return -0.05
	}
	return 0
}

// price sets a cost-aware target price on the listing: cost basis x target
// margin, jittered 5% either way, floored at a minimum viable margin over
// weighted average cost.
func (s *Strategist) price(ctx context.Context, company *models.Company, listing *models.CompanyProduct, product *models.Product, prof profile, tlog *turnlog.Log) error {
	wac, err := s.planner.ItemWAC(ctx, company.ID, product.ID)
	if err != nil {
		return err
	}

	costBasis := math.Max(product.BaseCost, wac)
	margin := prof.targetMargin + marginOffset(company, product.ID)
	target := costBasis * (1 + margin)
	target *= s.rand.Between(0.95, 1.05)

	if wac > 0 {
		floor := wac * 1.05
		if target < floor {
			target = floor
		}
	}

	old := listing.Price
	listing.Price = round2(target)
	if err := s.repo.SaveListing(ctx, listing); err != nil {
		return err
	}
	if tlog != nil {
		tlog.Addf(ctx, "%s: %s priced %.2f -> %.2f (margin %.0f%%)", company.Name, product.Name, old, listing.Price, margin*100)
	}
	return nil
}

// restock evaluates purchase viability and buys what the plan recommends,
// scaled down when the bot's break-even price sits above the market anchor.
func (s *Strategist) restock(ctx context.Context, company *models.Company, product *models.Product, prof profile, month, year int, tlog *turnlog.Log) error {
	cash, err := s.books.CompanyCash(ctx, company.ID)
	if err != nil {
		return err
	}
	if cash < minRestockCash {
		if tlog != nil {
			tlog.Addf(ctx, "%s: cash %.2f too low to restock %s", company.Name, cash, product.Name)
		}
		return nil
	}

	scaler := events.Scaler{Engine: s.engine, Month: month}
	forecast, err := s.planner.ForecastDemand(ctx, company.ID, product.ID, month, year, scaler)
	if err != nil {
		return err
	}
	safety, err := s.planner.SafetyStock(ctx, company.ID, product.ID, month, year)
	if err != nil {
		return err
	}
	// stockout pain pads the buffer, up to double
	severity := company.StrategyMemory.TotalStockoutSeverity()
	safety *= 1 + math.Min(severity/5, 1.0)

	current, err := s.planner.CurrentInventory(ctx, company.ID, product.ID)
	if err != nil {
		return err
	}
	recommended := int(math.Round(forecast + safety - float64(current)))
	if recommended <= 0 {
		return nil
	}

	costModifier, err := s.engine.CostModifier(ctx, product.ID)
	if err != nil {
		return err
	}
	unitCost := product.BaseCost * costModifier

	breakEven := unitCost * (1 + prof.targetMargin)
	gap := 0.0
	if product.BasePrice > 0 {
		gap = (breakEven - product.BasePrice) / product.BasePrice
	}

	var fraction float64
	switch {
	case gap > 0.20:
		if tlog != nil {
			tlog.Addf(ctx, "%s: skipping %s, break-even %.2f is %.0f%% above market anchor", company.Name, product.Name, breakEven, gap*100)
		}
		return nil
	case gap > 0.10:
		fraction = 0.30
	case gap > 0:
		fraction = 0.50
	default:
		fraction = 1.0
	}

	quantity := int(float64(recommended) * fraction)
	affordable := int(math.Floor(cash / unitCost))
	if quantity > affordable {
		quantity = affordable
	}
	if quantity <= 0 {
		return nil
	}

	if err := s.purchaser.PurchaseInventory(ctx, company.ID, product.ID, quantity, unitCost); err != nil {
		return err
	}
	if tlog != nil {
		tlog.Addf(ctx, "%s: restocked %d x %s at %.2f each", company.Name, quantity, product.Name, unitCost)
	}
	return nil
}

// brand spends the personality's marketing budget and converts it into brand
// equity.
func (s *Strategist) brand(ctx context.Context, company *models.Company, prof profile, month, year int, tlog *turnlog.Log) error {
	cash, err := s.books.CompanyCash(ctx, company.ID)
	if err != nil {
		return err
	}
	if cash < minBrandingCash {
		return nil
	}

	pct := prof.marketingPct
	if company.StrategyMemory.MarketingBudgetPct != nil {
		pct = *company.StrategyMemory.MarketingBudgetPct
	}
	spend := round2(cash * pct)
	if spend < minBrandingSpend {
		return nil
	}

	if _, err := s.books.CreateTransaction(ctx, ledger.RecordTransactionInput{
		CompanyID:   company.ID,
		Description: fmt.Sprintf("Marketing spend (%d/%d)", month, year),
		Entries: []ledger.EntryInput{
			{AccountCode: enums.AccountCodeMarketingExpense, Amount: spend},
			{AccountCode: enums.AccountCodeCash, Amount: -spend},
		},
	}); err != nil {
		return err
	}

	company.BrandEquity += spend * brandPerDollar
	if tlog != nil {
		tlog.Addf(ctx, "%s: spent %.2f on marketing, brand equity now %.2f", company.Name, spend, company.BrandEquity)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
