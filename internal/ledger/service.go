package ledger

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/errors"
)

// balanceTolerance absorbs float drift when checking that debits equal credits.
const balanceTolerance = 0.01

// chartAccount is one row of the standard chart every company is seeded with.
type chartAccount struct {
	code string
	name string
	typ  enums.AccountType
}

var standardChart = []chartAccount{
	{enums.AccountCodeCash, "Cash", enums.AccountTypeAsset},
	{enums.AccountCodeAccountsReceivable, "Accounts Receivable", enums.AccountTypeAsset},
	{enums.AccountCodeInventory, "Inventory", enums.AccountTypeAsset},
	{enums.AccountCodeWarehouses, "Warehouses", enums.AccountTypeAsset},
	{enums.AccountCodeAccountsPayable, "Accounts Payable", enums.AccountTypeLiability},
	{enums.AccountCodeLoansPayable, "Loans Payable", enums.AccountTypeLiability},
	{enums.AccountCodeOwnersCapital, "Owner's Capital", enums.AccountTypeEquity},
	{enums.AccountCodeRetainedEarnings, "Retained Earnings", enums.AccountTypeEquity},
	{enums.AccountCodeSalesRevenue, "Sales Revenue", enums.AccountTypeRevenue},
	{enums.AccountCodeCOGS, "Cost of Goods Sold", enums.AccountTypeExpense},
	{enums.AccountCodeRentExpense, "Rent Expense", enums.AccountTypeExpense},
	{enums.AccountCodeMarketingExpense, "Marketing Expense", enums.AccountTypeExpense},
	{enums.AccountCodeLogisticsExpense, "Logistics Expense", enums.AccountTypeExpense},
}

// EntryInput is one posting of a transaction, addressed by the company-local
// account code. Positive amounts debit the account, negative amounts credit it.
type EntryInput struct {
	AccountCode string
	Amount      float64
}

// RecordTransactionInput captures one atomic economic event.
type RecordTransactionInput struct {
	CompanyID   int64
	Description string
	Entries     []EntryInput
}

// AccountBalance pairs an account with its derived signed balance.
type AccountBalance struct {
	Account models.Account
	Balance float64
}

// Service exposes the double-entry bookkeeping operations. Every cash figure
// in the simulation is derived through this service; nothing stores balances.
type Service interface {
	// WithTx returns a service whose writes join the provided transaction.
	WithTx(tx *gorm.DB) Service
	InitializeChartOfAccounts(ctx context.Context, companyID int64) error
	CreateTransaction(ctx context.Context, input RecordTransactionInput) (*models.Transaction, error)
	RecordCashInvestment(ctx context.Context, companyID int64, amount float64) (*models.Transaction, error)
	AccountByCode(ctx context.Context, companyID int64, code string) (*models.Account, error)
	AccountBalance(ctx context.Context, companyID int64, code string) (float64, error)
	CompanyCash(ctx context.Context, companyID int64) (float64, error)
	NetIncome(ctx context.Context, companyID int64) (float64, error)
	AccountBalances(ctx context.Context, companyID int64) ([]AccountBalance, error)
}

type service struct {
	client *db.Client
	repo   Repository
}

// NewService wires a ledger service with the provided database client.
func NewService(client *db.Client, repo Repository) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{client: client, repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{client: nil, repo: s.repo.WithTx(tx)}
}

// inTx runs fn inside a transaction, or directly when the service is already
// transaction-bound via WithTx.
func (s *service) inTx(ctx context.Context, fn func(repo Repository) error) error {
	if s.client == nil {
		return fn(s.repo)
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx))
	})
}

// NamespacedCode returns the globally unique account code for a company-local
// chart code.
func NamespacedCode(companyID int64, code string) string {
	return fmt.Sprintf("%d-%s", companyID, code)
}

func (s *service) InitializeChartOfAccounts(ctx context.Context, companyID int64) error {
	if companyID == 0 {
		return errors.New(errors.CodeValidation, "company id is required")
	}
	return s.inTx(ctx, func(repo Repository) error {
		for _, row := range standardChart {
			account := &models.Account{
				CompanyID: companyID,
				Code:      NamespacedCode(companyID, row.code),
				Name:      row.name,
				Type:      row.typ,
			}
			if err := repo.CreateAccount(ctx, account); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "creating account "+row.code)
			}
		}
		return nil
	})
}

func (s *service) CreateTransaction(ctx context.Context, input RecordTransactionInput) (*models.Transaction, error) {
	if input.CompanyID == 0 {
		return nil, errors.New(errors.CodeValidation, "company id is required")
	}
	if len(input.Entries) < 2 {
		return nil, errors.New(errors.CodeValidation, "a transaction requires at least two entries")
	}
	var sum float64
	for _, entry := range input.Entries {
		sum += entry.Amount
	}
	if math.Abs(sum) > balanceTolerance {
		return nil, errors.New(errors.CodeUnbalanced, "journal entries do not balance").
			WithDetails(map[string]any{"imbalance": sum, "description": input.Description})
	}

	txn := &models.Transaction{
		CompanyID:   input.CompanyID,
		Description: input.Description,
	}
	err := s.inTx(ctx, func(repo Repository) error {
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating transaction")
		}
		entries := make([]models.JournalEntry, 0, len(input.Entries))
		for _, entry := range input.Entries {
			account, err := repo.AccountByCode(ctx, NamespacedCode(input.CompanyID, entry.AccountCode))
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "looking up account "+entry.AccountCode)
			}
			if account == nil {
				return errors.New(errors.CodeNotFound, "account not found").
					WithDetails(map[string]any{"company_id": input.CompanyID, "code": entry.AccountCode})
			}
			entries = append(entries, models.JournalEntry{
				TransactionID: txn.ID,
				AccountID:     account.ID,
				Amount:        entry.Amount,
			})
		}
		if err := repo.CreateJournalEntries(ctx, entries); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating journal entries")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) RecordCashInvestment(ctx context.Context, companyID int64, amount float64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, errors.New(errors.CodeValidation, "investment amount must be positive")
	}
	return s.CreateTransaction(ctx, RecordTransactionInput{
		CompanyID:   companyID,
		Description: fmt.Sprintf("Initial capital investment of %.2f", amount),
		Entries: []EntryInput{
			{AccountCode: enums.AccountCodeCash, Amount: amount},
			{AccountCode: enums.AccountCodeOwnersCapital, Amount: -amount},
		},
	})
}

func (s *service) AccountByCode(ctx context.Context, companyID int64, code string) (*models.Account, error) {
	return s.repo.AccountByCode(ctx, NamespacedCode(companyID, code))
}

func (s *service) AccountBalance(ctx context.Context, companyID int64, code string) (float64, error) {
	account, err := s.AccountByCode(ctx, companyID, code)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return s.repo.SumEntries(ctx, account.ID)
}

// CompanyCash is the derived cash account balance. A company without a chart
// has zero cash, not an error.
func (s *service) CompanyCash(ctx context.Context, companyID int64) (float64, error) {
	return s.AccountBalance(ctx, companyID, enums.AccountCodeCash)
}

// NetIncome is lifetime revenue less lifetime expenses. Revenue entries are
// credits (negative), so the signed sum over both types is negated.
func (s *service) NetIncome(ctx context.Context, companyID int64) (float64, error) {
	sum, err := s.repo.SumEntriesByType(ctx, companyID, enums.AccountTypeRevenue, enums.AccountTypeExpense)
	if err != nil {
		return 0, err
	}
	return -sum, nil
}

func (s *service) AccountBalances(ctx context.Context, companyID int64) ([]AccountBalance, error) {
	accounts, err := s.repo.AccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	balances := make([]AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		sum, err := s.repo.SumEntries(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		balances = append(balances, AccountBalance{Account: account, Balance: sum})
	}
	return balances, nil
}
