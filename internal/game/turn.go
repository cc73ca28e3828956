package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/inventory"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/errors"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/turnlog"
)

// brandDecayRate is the share of brand equity above the 1.0 baseline that
// evaporates every turn without fresh marketing spend.
const brandDecayRate = 0.10

// TurnResult summarizes one processed turn. Month and year are the state
// after advancing the calendar.
type TurnResult struct {
	Month  int      `json:"month"`
	Year   int      `json:"year"`
	Events []string `json:"events"`
	Logs   []string `json:"logs"`
	RunID  string   `json:"run_id"`
}

// ProcessTurn runs one month of the simulation inside a single transaction:
// clean up any partial rows for this turn, roll market events, settle sales
// per product, charge rent, run the bots, snapshot finances, age events,
// advance the calendar, and decay brand equity.
func (s *service) ProcessTurn(ctx context.Context) (*TurnResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	if s.log != nil {
		ctx = s.log.WithRequestID(ctx, runID)
	}

	player, err := s.repo.PlayerCompany(ctx)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, errors.New(errors.CodeStateConflict, "no game in progress, initialize first")
	}

	state, err := s.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	month, year := state.CurrentMonth, state.CurrentYear
	if s.log != nil {
		ctx = s.log.WithTurn(ctx, month, year)
	}

	tlog := turnlog.New(s.log)
	var eventLines []string

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		books := s.books.WithTx(tx)
		planner := s.planner.WithTx(tx)
		engine := s.engine.WithTx(tx)
		sim := s.sim.WithTx(tx)
		buy := purchaser{books: books, planner: planner}
		bots := s.bots.WithTx(tx, buy)

		// Partial rows from an aborted run of this same turn would double
		// count once we re-settle sales.
		if err := repo.ClearTurnRows(ctx, month, year); err != nil {
			return fmt.Errorf("clear turn rows: %w", err)
		}
		tlog.Addf(ctx, "processing turn %d/%d", month, year)

		newEvents, err := engine.TriggerRandomEvents(ctx, month, year)
		if err != nil {
			return fmt.Errorf("trigger events: %w", err)
		}
		for _, ev := range newEvents {
			s.turns.IncEvent(string(ev.EventType))
			eventLines = append(eventLines, ev.Description)
			tlog.Addf(ctx, "new market event: %s", ev.Description)
		}
		evolved, err := engine.ProcessEconomicEvolution(ctx)
		if err != nil {
			return fmt.Errorf("evolve events: %w", err)
		}
		for _, ev := range evolved {
			eventLines = append(eventLines, ev.Description)
			tlog.Addf(ctx, "event shifted: %s", ev.Description)
		}
		active, err := engine.ActiveEvents(ctx)
		if err != nil {
			return err
		}
		for _, ev := range active {
			tlog.Addf(ctx, "active condition: %s (%d months remaining)", ev.Description, ev.DurationMonths)
		}

		products, err := repo.Products(ctx)
		if err != nil {
			return err
		}
		for _, product := range products {
			demand, breakdown, err := sim.CalculateDemand(ctx, engine, product, month)
			if err != nil {
				return fmt.Errorf("demand for %s: %w", product.Name, err)
			}
			tlog.Addf(ctx, "%s demand: %d units (base %.0f, seasonal x%.2f, economic x%.2f)",
				product.Name, int(demand), breakdown.Base, breakdown.Seasonal, breakdown.Economic)
			allocation, err := sim.DistributeSales(ctx, product.ID, demand)
			if err != nil {
				return fmt.Errorf("distribute sales for %s: %w", product.Name, err)
			}
			if err := sim.ProcessSales(ctx, product, allocation, month, year, tlog); err != nil {
				return fmt.Errorf("settle sales for %s: %w", product.Name, err)
			}
		}

		warehouses, err := repo.Warehouses(ctx)
		if err != nil {
			return err
		}
		for _, warehouse := range warehouses {
			_, err := books.CreateTransaction(ctx, ledger.RecordTransactionInput{
				CompanyID:   warehouse.CompanyID,
				Description: fmt.Sprintf("Warehouse rent - %s", warehouse.Name),
				Entries: []ledger.EntryInput{
					{AccountCode: enums.AccountCodeRentExpense, Amount: warehouse.MonthlyCost},
					{AccountCode: enums.AccountCodeCash, Amount: -warehouse.MonthlyCost},
				},
			})
			if err != nil {
				return fmt.Errorf("warehouse rent for company %d: %w", warehouse.CompanyID, err)
			}
			tlog.Addf(ctx, "warehouse rent: %s -$%.2f", warehouse.Name, warehouse.MonthlyCost)
		}

		// One misbehaving bot must not sink the whole market's turn.
		botCompanies, err := repo.BotCompanies(ctx)
		if err != nil {
			return err
		}
		var botErrs error
		for _, bot := range botCompanies {
			if err := bots.RunTurn(ctx, bot.ID, month, year, tlog); err != nil {
				tlog.Addf(ctx, "bot %s skipped: %v", bot.Name, err)
				botErrs = multierr.Append(botErrs, fmt.Errorf("bot %d: %w", bot.ID, err))
			}
		}
		if botErrs != nil && s.log != nil {
			s.log.Error(ctx, "bot turns degraded", botErrs)
		}

		companies, err := repo.Companies(ctx)
		if err != nil {
			return err
		}
		for _, company := range companies {
			if err := s.snapshotCompany(ctx, repo, books, planner, company.ID, month, year, tlog); err != nil {
				return fmt.Errorf("snapshot company %d: %w", company.ID, err)
			}
		}

		purged, err := engine.DecrementDurations(ctx)
		if err != nil {
			return fmt.Errorf("age events: %w", err)
		}
		if purged > 0 {
			tlog.Addf(ctx, "%d market events expired", purged)
		}

		state.CurrentMonth++
		if state.CurrentMonth > 12 {
			state.CurrentMonth = 1
			state.CurrentYear++
			eventLines = append(eventLines, fmt.Sprintf("New year: %d", state.CurrentYear))
		}
		if err := repo.SaveState(ctx, state); err != nil {
			return err
		}
		tlog.Addf(ctx, "advanced to %d/%d", state.CurrentMonth, state.CurrentYear)

		// Re-read companies: bots may have moved their own brand equity
		// earlier in this transaction.
		companies, err = repo.Companies(ctx)
		if err != nil {
			return err
		}
		for i := range companies {
			company := &companies[i]
			if company.BrandEquity <= 1.0 {
				continue
			}
			company.BrandEquity -= brandDecayRate * (company.BrandEquity - 1.0)
			if err := repo.SaveCompany(ctx, company); err != nil {
				return err
			}
		}
		return nil
	})

	s.turns.ObserveDuration("turn", time.Since(start))
	if err != nil {
		s.turns.IncFailure("turn")
		return nil, fmt.Errorf("process turn %d/%d: %w", month, year, err)
	}
	s.turns.IncSuccess("turn")

	return &TurnResult{
		Month:  state.CurrentMonth,
		Year:   state.CurrentYear,
		Events: eventLines,
		Logs:   tlog.Lines(),
		RunID:  runID,
	}, nil
}

func (s *service) snapshotCompany(
	ctx context.Context,
	repo Repository,
	books ledger.Service,
	planner inventory.Planner,
	companyID int64,
	month, year int,
	tlog *turnlog.Log,
) error {
	cash, err := books.CompanyCash(ctx, companyID)
	if err != nil {
		return err
	}
	inventoryValue, err := planner.InventoryValue(ctx, companyID)
	if err != nil {
		return err
	}
	netIncome, err := books.NetIncome(ctx, companyID)
	if err != nil {
		return err
	}
	totalAssets := cash + inventoryValue
	snapshot := &models.FinancialSnapshot{
		CompanyID:      companyID,
		Month:          month,
		Year:           year,
		CashBalance:    cash,
		InventoryValue: inventoryValue,
		TotalAssets:    totalAssets,
		TotalEquity:    totalAssets,
		NetIncome:      netIncome,
	}
	if err := repo.CreateSnapshot(ctx, snapshot); err != nil {
		return err
	}
	tlog.Addf(ctx, "company %d: assets $%.2f (cash $%.2f, inventory $%.2f), profit $%.2f",
		companyID, totalAssets, cash, inventoryValue, netIncome)
	return nil
}
