package reports

import (
	"context"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
)

// Repository reads the time-series rows reporting serves. Reports never
// write game state.
type Repository interface {
	State(ctx context.Context) (*models.GameState, error)
	// MarketHistory returns rows for turns strictly before the given
	// calendar position, oldest first. Zero company or product ids mean
	// no filter on that column.
	MarketHistory(ctx context.Context, companyID, productID int64, month, year int) ([]models.MarketHistory, error)
	// FinancialHistory returns a company's snapshots strictly before the
	// given calendar position, oldest first.
	FinancialHistory(ctx context.Context, companyID int64, month, year int) ([]models.FinancialSnapshot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) State(ctx context.Context) (*models.GameState, error) {
	var state models.GameState
	if err := r.db.WithContext(ctx).Order("id").First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) MarketHistory(ctx context.Context, companyID, productID int64, month, year int) ([]models.MarketHistory, error) {
	query := r.db.WithContext(ctx).
		Where("year < ? OR (year = ? AND month < ?)", year, year, month).
		Order("year, month")
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	if productID != 0 {
		query = query.Where("product_id = ?", productID)
	}
	var rows []models.MarketHistory
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) FinancialHistory(ctx context.Context, companyID int64, month, year int) ([]models.FinancialSnapshot, error) {
	var rows []models.FinancialSnapshot
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("year < ? OR (year = ? AND month < ?)", year, year, month).
		Order("year, month").
		Find(&rows).Error
	return rows, err
}
