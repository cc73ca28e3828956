package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
)

// Repository manages persistence for accounts, transactions and journal
// entries. Journal entries are append-only; nothing here mutates or deletes
// postings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAccount(ctx context.Context, account *models.Account) error
	AccountByCode(ctx context.Context, code string) (*models.Account, error)
	AccountsByCompany(ctx context.Context, companyID int64) ([]models.Account, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	CreateJournalEntries(ctx context.Context, entries []models.JournalEntry) error
	SumEntries(ctx context.Context, accountID int64) (float64, error)
	SumEntriesByType(ctx context.Context, companyID int64, types ...enums.AccountType) (float64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) AccountByCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) AccountsByCompany(ctx context.Context, companyID int64) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("code ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) CreateJournalEntries(ctx context.Context, entries []models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) SumEntries(ctx context.Context, accountID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SumEntriesByType(ctx context.Context, companyID int64, types ...enums.AccountType) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Joins("JOIN accounts ON accounts.id = journal_entries.account_id").
		Where("accounts.company_id = ? AND accounts.type IN ?", companyID, types).
		Select("COALESCE(SUM(journal_entries.amount), 0)").
		Scan(&total).Error
	return total, err
}
