package events

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
)

// Repository manages persistence for market events and the product catalog
// reads the engine needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.MarketEvent) error
	Save(ctx context.Context, event *models.MarketEvent) error
	ByID(ctx context.Context, id int64) (*models.MarketEvent, error)
	ActiveEvents(ctx context.Context) ([]models.MarketEvent, error)
	ActiveEconomicEvent(ctx context.Context) (*models.MarketEvent, error)
	ActiveSupplyDisruption(ctx context.Context, productID int64) (*models.MarketEvent, error)
	UnresolvedDecisionEvents(ctx context.Context) ([]models.MarketEvent, error)
	DecrementDurations(ctx context.Context) error
	DeleteExpired(ctx context.Context) (int64, error)
	Products(ctx context.Context) ([]models.Product, error)
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an events repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.MarketEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) Save(ctx context.Context, event *models.MarketEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *repository) ByID(ctx context.Context, id int64) (*models.MarketEvent, error) {
	var event models.MarketEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) ActiveEvents(ctx context.Context) ([]models.MarketEvent, error) {
	var events []models.MarketEvent
	if err := r.db.WithContext(ctx).
		Where("duration_months > 0").
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ActiveEconomicEvent(ctx context.Context) (*models.MarketEvent, error) {
	var event models.MarketEvent
	if err := r.db.WithContext(ctx).
		Where("event_type IN ? AND duration_months > 0",
			[]enums.MarketEventType{enums.MarketEventEconomicBoom, enums.MarketEventRecession}).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) ActiveSupplyDisruption(ctx context.Context, productID int64) (*models.MarketEvent, error) {
	var event models.MarketEvent
	if err := r.db.WithContext(ctx).
		Where("event_type = ? AND affected_product_id = ? AND duration_months > 0",
			enums.MarketEventSupplyDisruption, productID).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) UnresolvedDecisionEvents(ctx context.Context) ([]models.MarketEvent, error) {
	var events []models.MarketEvent
	if err := r.db.WithContext(ctx).
		Where("event_type = ? AND decision_made = ? AND duration_months > 0",
			enums.MarketEventDecision, false).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) DecrementDurations(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&models.MarketEvent{}).
		Where("duration_months > 0").
		UpdateColumn("duration_months", gorm.Expr("duration_months - 1")).Error
}

func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("duration_months <= 0").
		Delete(&models.MarketEvent{})
	return result.RowsAffected, result.Error
}

func (r *repository) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
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
