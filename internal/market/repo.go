package market

import (
	"context"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
)

// Repository manages the market-facing persistence: product listings and the
// per-turn sales history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// ListingsForProduct returns every company's listing with a positive
	// price for the product.
	ListingsForProduct(ctx context.Context, productID int64) ([]models.CompanyProduct, error)
	SaveListing(ctx context.Context, listing *models.CompanyProduct) error
	CreateHistory(ctx context.Context, row *models.MarketHistory) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a market repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListingsForProduct(ctx context.Context, productID int64) ([]models.CompanyProduct, error) {
	var listings []models.CompanyProduct
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND price > 0", productID).
		Order("company_id ASC").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *repository) SaveListing(ctx context.Context, listing *models.CompanyProduct) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *repository) CreateHistory(ctx context.Context, row *models.MarketHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}
