package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
)

// Repository manages per-company stock rows and reads the market history the
// planner forecasts from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ItemFor(ctx context.Context, companyID, productID int64) (*models.InventoryItem, error)
	// ItemForUpdate locks the stock row for the duration of the enclosing
	// transaction. On dialects without row locking it degrades to a read.
	ItemForUpdate(ctx context.Context, companyID, productID int64) (*models.InventoryItem, error)
	Save(ctx context.Context, item *models.InventoryItem) error
	ItemsByCompany(ctx context.Context, companyID int64) ([]models.InventoryItem, error)
	// RecentHistory returns up to limit rows for the company/product strictly
	// before the given turn, most recent first.
	RecentHistory(ctx context.Context, companyID, productID int64, month, year, limit int) ([]models.MarketHistory, error)
	// ProductAverageDemand is the cross-company average of captured demand
	// for the product across all recorded history. The bool reports whether
	// any history exists.
	ProductAverageDemand(ctx context.Context, productID int64) (float64, bool, error)
	// UnitsSoldInWindow sums units sold for the company/product over the most
	// recent periods turns before the given one.
	UnitsSoldInWindow(ctx context.Context, companyID, productID int64, month, year, periods int) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ItemFor(ctx context.Context, companyID, productID int64) (*models.InventoryItem, error) {
	return r.itemFor(r.db.WithContext(ctx), companyID, productID)
}

func (r *repository) ItemForUpdate(ctx context.Context, companyID, productID int64) (*models.InventoryItem, error) {
	return r.itemFor(db.ForUpdate(r.db.WithContext(ctx)), companyID, productID)
}

func (r *repository) itemFor(tx *gorm.DB, companyID, productID int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := tx.
		Where("company_id = ? AND product_id = ?", companyID, productID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) Save(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) ItemsByCompany(ctx context.Context, companyID int64) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) RecentHistory(ctx context.Context, companyID, productID int64, month, year, limit int) ([]models.MarketHistory, error) {
	var rows []models.MarketHistory
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND product_id = ?", companyID, productID).
		Where("year < ? OR (year = ? AND month < ?)", year, year, month).
		Order("year DESC, month DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ProductAverageDemand(ctx context.Context, productID int64) (float64, bool, error) {
	var result struct {
		Avg   float64
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MarketHistory{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(demand_captured), 0) AS avg, COUNT(*) AS count").
		Scan(&result).Error; err != nil {
		return 0, false, err
	}
	return result.Avg, result.Count > 0, nil
}

func (r *repository) UnitsSoldInWindow(ctx context.Context, companyID, productID int64, month, year, periods int) (int, error) {
	rows, err := r.RecentHistory(ctx, companyID, productID, month, year, periods)
	if err != nil {
		return 0, err
	}
	var total int
	for _, row := range rows {
		total += row.UnitsSold
	}
	return total, nil
}
