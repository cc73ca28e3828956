package game

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
)

// Repository manages game lifecycle state: the calendar singleton, the
// company and product catalog, and the per-turn time-series rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	State(ctx context.Context) (*models.GameState, error)
	SaveState(ctx context.Context, state *models.GameState) error
	// ResetAll deletes every simulation row, children before parents.
	ResetAll(ctx context.Context) error

	CreateCompany(ctx context.Context, company *models.Company) error
	CompanyByID(ctx context.Context, id int64) (*models.Company, error)
	SaveCompany(ctx context.Context, company *models.Company) error
	Companies(ctx context.Context) ([]models.Company, error)
	BotCompanies(ctx context.Context) ([]models.Company, error)
	PlayerCompany(ctx context.Context) (*models.Company, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	Products(ctx context.Context) ([]models.Product, error)

	CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error
	Warehouses(ctx context.Context) ([]models.Warehouse, error)

	CreateListing(ctx context.Context, listing *models.CompanyProduct) error
	ListingFor(ctx context.Context, companyID, productID int64) (*models.CompanyProduct, error)
	SaveListing(ctx context.Context, listing *models.CompanyProduct) error

	// ClearTurnRows deletes the time-series rows already written for the
	// given turn so a re-run starts from a clean slate.
	ClearTurnRows(ctx context.Context, month, year int) error
	CreateSnapshot(ctx context.Context, snapshot *models.FinancialSnapshot) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a game repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) State(ctx context.Context) (*models.GameState, error) {
	var state models.GameState
	if err := r.db.WithContext(ctx).Order("id").First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *repository) SaveState(ctx context.Context, state *models.GameState) error {
	return r.db.WithContext(ctx).Save(state).Error
}

func (r *repository) ResetAll(ctx context.Context) error {
	ordered := []any{
		&models.JournalEntry{},
		&models.Transaction{},
		&models.Account{},
		&models.MarketHistory{},
		&models.FinancialSnapshot{},
		&models.InventoryItem{},
		&models.CompanyProduct{},
		&models.Warehouse{},
		&models.Product{},
		&models.MarketEvent{},
		&models.Company{},
		&models.GameState{},
	}
	for _, model := range ordered {
		if err := r.db.WithContext(ctx).Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) CreateCompany(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
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

func (r *repository) Companies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.WithContext(ctx).Order("id").Find(&companies).Error
	return companies, err
}

func (r *repository) BotCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.WithContext(ctx).
		Where("is_player = ?", false).
		Order("id").
		Find(&companies).Error
	return companies, err
}

func (r *repository) PlayerCompany(ctx context.Context) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).Where("is_player = ?", true).Order("id").First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

func (r *repository) CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *repository) Warehouses(ctx context.Context) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	err := r.db.WithContext(ctx).Order("id").Find(&warehouses).Error
	return warehouses, err
}

func (r *repository) CreateListing(ctx context.Context, listing *models.CompanyProduct) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) ListingFor(ctx context.Context, companyID, productID int64) (*models.CompanyProduct, error) {
	var listing models.CompanyProduct
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND product_id = ?", companyID, productID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *repository) SaveListing(ctx context.Context, listing *models.CompanyProduct) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *repository) ClearTurnRows(ctx context.Context, month, year int) error {
	if err := r.db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year).
		Delete(&models.MarketHistory{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year).
		Delete(&models.FinancialSnapshot{}).Error
}

func (r *repository) CreateSnapshot(ctx context.Context, snapshot *models.FinancialSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}
