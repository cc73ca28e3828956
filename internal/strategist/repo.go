package strategist

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
)

// Repository manages the reads and writes bot decision-making needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CompanyByID(ctx context.Context, id int64) (*models.Company, error)
	SaveCompany(ctx context.Context, company *models.Company) error
	ListingsByCompany(ctx context.Context, companyID int64) ([]models.CompanyProduct, error)
	SaveListing(ctx context.Context, listing *models.CompanyProduct) error
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
	// AverageListedPrice is the simple mean of all positive listed prices for
	// the product across companies.
	AverageListedPrice(ctx context.Context, productID int64) (float64, error)
	// LastHistory returns the company's most recent history row for the
	// product strictly before the given turn, or nil.
	LastHistory(ctx context.Context, companyID, productID int64, month, year int) (*models.MarketHistory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a strategist repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CompanyByID(ctx context.Context, id int64) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repository) SaveCompany(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *repository) ListingsByCompany(ctx context.Context, companyID int64) ([]models.CompanyProduct, error) {
	var listings []models.CompanyProduct
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("product_id ASC").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *repository) SaveListing(ctx context.Context, listing *models.CompanyProduct) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *repository) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) AverageListedPrice(ctx context.Context, productID int64) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).
		Model(&models.CompanyProduct{}).
		Where("product_id = ? AND price > 0", productID).
		Select("COALESCE(AVG(price), 0)").
		Scan(&avg).Error
	return avg, err
}

func (r *repository) LastHistory(ctx context.Context, companyID, productID int64, month, year int) (*models.MarketHistory, error) {
	var row models.MarketHistory
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND product_id = ?", companyID, productID).
		Where("year < ? OR (year = ? AND month < ?)", year, year, month).
		Order("year DESC, month DESC").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
