// Package reports derives financial statements and metrics from the ledger.
// Everything here is read-only: statements are recomputed from journal
// entries on every call, with an optional cache in front of the metrics.
package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/redis"
)

// metricsTTL bounds staleness of cached key metrics. The cache key carries
// the turn, so a processed turn naturally reads fresh.
const metricsTTL = 10 * time.Minute

// AccountLine is one account on a statement.
type AccountLine struct {
	Name    string  `json:"name"`
	Code    string  `json:"code"`
	Balance float64 `json:"balance"`
}

// BalanceSheet groups account balances by type. Liability and equity lines
// are reported as positive magnitudes.
type BalanceSheet struct {
	Assets           []AccountLine `json:"assets"`
	TotalAssets      float64       `json:"total_assets"`
	Liabilities      []AccountLine `json:"liabilities"`
	TotalLiabilities float64       `json:"total_liabilities"`
	Equity           []AccountLine `json:"equity"`
	TotalEquity      float64       `json:"total_equity"`
	Balanced         bool          `json:"balanced"`
}

// IncomeStatement reports revenue and expense lines as positive magnitudes.
type IncomeStatement struct {
	Revenue       []AccountLine `json:"revenue"`
	TotalRevenue  float64       `json:"total_revenue"`
	Expenses      []AccountLine `json:"expenses"`
	TotalExpenses float64       `json:"total_expenses"`
	NetIncome     float64       `json:"net_income"`
	// ProfitMargin is a percentage, 0 when there is no revenue.
	ProfitMargin float64 `json:"profit_margin"`
}

// KeyMetrics is the at-a-glance financial health block.
type KeyMetrics struct {
	CashBalance  float64 `json:"cash_balance"`
	NetWorth     float64 `json:"net_worth"`
	ProfitMargin float64 `json:"profit_margin"`
	ROI          float64 `json:"roi"`
	DebtRatio    float64 `json:"debt_ratio"`
}

// Service is the read-only reporting surface.
type Service interface {
	BalanceSheet(ctx context.Context, companyID int64) (*BalanceSheet, error)
	IncomeStatement(ctx context.Context, companyID int64) (*IncomeStatement, error)
	KeyMetrics(ctx context.Context, companyID int64) (*KeyMetrics, error)
	// MarketHistory and FinancialHistory exclude the turn currently being
	// played; only settled months are reported.
	MarketHistory(ctx context.Context, companyID, productID int64) ([]models.MarketHistory, error)
	FinancialHistory(ctx context.Context, companyID int64) ([]models.FinancialSnapshot, error)
}

type service struct {
	repo  Repository
	books ledger.Service
	cache *redis.Client
	log   *logger.Logger
}

// NewService wires the reporting service. The cache client may be nil.
func NewService(repo Repository, books ledger.Service, cache *redis.Client, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &service{repo: repo, books: books, cache: cache, log: log}, nil
}

func (s *service) BalanceSheet(ctx context.Context, companyID int64) (*BalanceSheet, error) {
	balances, err := s.books.AccountBalances(ctx, companyID)
	if err != nil {
		return nil, err
	}

	sheet := &BalanceSheet{
		Assets:      []AccountLine{},
		Liabilities: []AccountLine{},
		Equity:      []AccountLine{},
	}
	for _, entry := range balances {
		line := AccountLine{
			Name:    entry.Account.Name,
			Code:    entry.Account.Code,
			Balance: entry.Balance,
		}
		switch entry.Account.Type {
		case enums.AccountTypeAsset:
			sheet.Assets = append(sheet.Assets, line)
			sheet.TotalAssets += line.Balance
		case enums.AccountTypeLiability:
			line.Balance = math.Abs(line.Balance)
			sheet.Liabilities = append(sheet.Liabilities, line)
			sheet.TotalLiabilities += line.Balance
		case enums.AccountTypeEquity:
			line.Balance = math.Abs(line.Balance)
			sheet.Equity = append(sheet.Equity, line)
			sheet.TotalEquity += line.Balance
		}
	}
	// Retained earnings live in the revenue/expense accounts until a close,
	// so the identity is checked against equity plus earnings to date.
	netIncome, err := s.books.NetIncome(ctx, companyID)
	if err != nil {
		return nil, err
	}
	sheet.Balanced = math.Abs(sheet.TotalAssets-(sheet.TotalLiabilities+sheet.TotalEquity+netIncome)) < 0.01
	return sheet, nil
}

func (s *service) IncomeStatement(ctx context.Context, companyID int64) (*IncomeStatement, error) {
	balances, err := s.books.AccountBalances(ctx, companyID)
	if err != nil {
		return nil, err
	}

	statement := &IncomeStatement{
		Revenue:  []AccountLine{},
		Expenses: []AccountLine{},
	}
	for _, entry := range balances {
		line := AccountLine{
			Name:    entry.Account.Name,
			Code:    entry.Account.Code,
			Balance: math.Abs(entry.Balance),
		}
		switch entry.Account.Type {
		case enums.AccountTypeRevenue:
			statement.Revenue = append(statement.Revenue, line)
			statement.TotalRevenue += line.Balance
		case enums.AccountTypeExpense:
			statement.Expenses = append(statement.Expenses, line)
			statement.TotalExpenses += line.Balance
		}
	}
	statement.NetIncome = statement.TotalRevenue - statement.TotalExpenses
	if statement.TotalRevenue > 0 {
		statement.ProfitMargin = statement.NetIncome / statement.TotalRevenue * 100
	}
	return statement, nil
}

func (s *service) KeyMetrics(ctx context.Context, companyID int64) (*KeyMetrics, error) {
	key, err := s.metricsKey(ctx, companyID)
	if err == nil {
		if cached, hit := s.cachedMetrics(ctx, key); hit {
			return cached, nil
		}
	}

	sheet, err := s.BalanceSheet(ctx, companyID)
	if err != nil {
		return nil, err
	}
	statement, err := s.IncomeStatement(ctx, companyID)
	if err != nil {
		return nil, err
	}
	cash, err := s.books.CompanyCash(ctx, companyID)
	if err != nil {
		return nil, err
	}

	metrics := &KeyMetrics{
		CashBalance:  cash,
		NetWorth:     sheet.TotalAssets - sheet.TotalLiabilities,
		ProfitMargin: statement.ProfitMargin,
	}
	if sheet.TotalAssets > 0 {
		metrics.ROI = statement.NetIncome / sheet.TotalAssets * 100
		metrics.DebtRatio = sheet.TotalLiabilities / sheet.TotalAssets
	}
	s.storeMetrics(ctx, key, metrics)
	return metrics, nil
}

// metricsKey scopes the cache entry to the company and current turn so
// advancing the calendar invalidates it implicitly.
func (s *service) metricsKey(ctx context.Context, companyID int64) (string, error) {
	state, err := s.repo.State(ctx)
	if err != nil {
		return "", err
	}
	return redis.Key(
		"metrics",
		fmt.Sprintf("%d", companyID),
		fmt.Sprintf("%d-%d", state.CurrentYear, state.CurrentMonth),
	), nil
}

func (s *service) cachedMetrics(ctx context.Context, key string) (*KeyMetrics, bool) {
	if key == "" {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var metrics KeyMetrics
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return nil, false
	}
	return &metrics, true
}

func (s *service) storeMetrics(ctx context.Context, key string, metrics *KeyMetrics) {
	if key == "" {
		return
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), metricsTTL); err != nil && s.log != nil {
		s.log.Warn(ctx, fmt.Sprintf("metrics cache write skipped: %v", err))
	}
}

func (s *service) MarketHistory(ctx context.Context, companyID, productID int64) ([]models.MarketHistory, error) {
	state, err := s.repo.State(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.MarketHistory(ctx, companyID, productID, state.CurrentMonth, state.CurrentYear)
}

func (s *service) FinancialHistory(ctx context.Context, companyID int64) ([]models.FinancialSnapshot, error) {
	state, err := s.repo.State(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.FinancialHistory(ctx, companyID, state.CurrentMonth, state.CurrentYear)
}
