package inventory

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
)

const (
	// defaultPeriodsBack is the forecasting window in turns.
	defaultPeriodsBack = 3
	// fallbackDemand seeds the forecast before any market history exists.
	fallbackDemand = 300.0
	// safetyZScore targets roughly a 95% service level.
	safetyZScore = 1.65
)

// DemandScaler adjusts a raw forecast for active market conditions. The
// events engine satisfies this; a nil scaler leaves the forecast untouched.
type DemandScaler interface {
	DemandScale(ctx context.Context, productID int64) (float64, error)
}

// Planner computes demand forecasts, safety stock and reorder quantities
// from recorded market history, and tracks weighted average cost on stock.
type Planner interface {
	WithTx(tx *gorm.DB) Planner
	ForecastDemand(ctx context.Context, companyID, productID int64, month, year int, scaler DemandScaler) (float64, error)
	SafetyStock(ctx context.Context, companyID, productID int64, month, year int) (float64, error)
	CurrentInventory(ctx context.Context, companyID, productID int64) (int, error)
	// ItemWAC is the weighted average cost on the stock row, 0 without stock.
	ItemWAC(ctx context.Context, companyID, productID int64) (float64, error)
	ReorderQuantity(ctx context.Context, companyID, productID int64, month, year int, scaler DemandScaler) (int, error)
	// Turnover returns units sold over the window divided by current stock,
	// or nil when either side is zero.
	Turnover(ctx context.Context, companyID, productID int64, month, year, periods int) (*float64, error)
	// ReceiveStock folds a purchase into the stock row, recomputing the
	// weighted average cost. The caller supplies a transaction so the
	// read-modify-write cycle holds the row lock.
	ReceiveStock(ctx context.Context, companyID, productID int64, quantity int, unitCost float64) (*models.InventoryItem, error)
	InventoryValue(ctx context.Context, companyID int64) (float64, error)
}

type planner struct {
	repo Repository
}

// NewPlanner wires a planner with the provided repository.
func NewPlanner(repo Repository) (Planner, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &planner{repo: repo}, nil
}

func (p *planner) WithTx(tx *gorm.DB) Planner {
	if tx == nil {
		return p
	}
	return &planner{repo: p.repo.WithTx(tx)}
}

// ForecastDemand is a weighted moving average over recent captured demand,
// most-recent-first weights 3,2,1 truncated to available history. Without any
// company history it falls back to the product's cross-company average, then
// to a fixed default.
func (p *planner) ForecastDemand(ctx context.Context, companyID, productID int64, month, year int, scaler DemandScaler) (float64, error) {
	rows, err := p.repo.RecentHistory(ctx, companyID, productID, month, year, defaultPeriodsBack)
	if err != nil {
		return 0, err
	}

	var forecast float64
	if len(rows) > 0 {
		var weighted, weightSum float64
		for i, row := range rows {
			weight := float64(defaultPeriodsBack - i)
			weighted += row.DemandCaptured * weight
			weightSum += weight
		}
		forecast = weighted / weightSum
	} else {
		avg, ok, err := p.repo.ProductAverageDemand(ctx, productID)
		if err != nil {
			return 0, err
		}
		if ok {
			forecast = avg
		} else {
			forecast = fallbackDemand
		}
	}

	if scaler != nil {
		scale, err := scaler.DemandScale(ctx, productID)
		if err != nil {
			return 0, err
		}
		forecast *= scale
	}
	return forecast, nil
}

// SafetyStock sizes the buffer at safetyZScore standard deviations of recent
// demand. With fewer than two data points it falls back to 20% of the
// forecast.
func (p *planner) SafetyStock(ctx context.Context, companyID, productID int64, month, year int) (float64, error) {
	rows, err := p.repo.RecentHistory(ctx, companyID, productID, month, year, defaultPeriodsBack)
	if err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		forecast, err := p.ForecastDemand(ctx, companyID, productID, month, year, nil)
		if err != nil {
			return 0, err
		}
		return 0.2 * forecast, nil
	}

	var sum float64
	for _, row := range rows {
		sum += row.DemandCaptured
	}
	mean := sum / float64(len(rows))
	var variance float64
	for _, row := range rows {
		diff := row.DemandCaptured - mean
		variance += diff * diff
	}
	// sample stddev, n-1 denominator
	variance /= float64(len(rows) - 1)
	return safetyZScore * math.Sqrt(variance), nil
}

func (p *planner) CurrentInventory(ctx context.Context, companyID, productID int64) (int, error) {
	item, err := p.repo.ItemFor(ctx, companyID, productID)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, nil
	}
	return item.Quantity, nil
}

func (p *planner) ItemWAC(ctx context.Context, companyID, productID int64) (float64, error) {
	item, err := p.repo.ItemFor(ctx, companyID, productID)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, nil
	}
	return item.WAC, nil
}

func (p *planner) ReorderQuantity(ctx context.Context, companyID, productID int64, month, year int, scaler DemandScaler) (int, error) {
	forecast, err := p.ForecastDemand(ctx, companyID, productID, month, year, scaler)
	if err != nil {
		return 0, err
	}
	safety, err := p.SafetyStock(ctx, companyID, productID, month, year)
	if err != nil {
		return 0, err
	}
	current, err := p.CurrentInventory(ctx, companyID, productID)
	if err != nil {
		return 0, err
	}
	qty := int(math.Round(forecast + safety - float64(current)))
	if qty < 0 {
		qty = 0
	}
	return qty, nil
}

func (p *planner) Turnover(ctx context.Context, companyID, productID int64, month, year, periods int) (*float64, error) {
	sold, err := p.repo.UnitsSoldInWindow(ctx, companyID, productID, month, year, periods)
	if err != nil {
		return nil, err
	}
	current, err := p.CurrentInventory(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	if sold == 0 || current == 0 {
		return nil, nil
	}
	ratio := float64(sold) / float64(current)
	return &ratio, nil
}

func (p *planner) ReceiveStock(ctx context.Context, companyID, productID int64, quantity int, unitCost float64) (*models.InventoryItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if unitCost < 0 {
		return nil, fmt.Errorf("unit cost must not be negative, got %f", unitCost)
	}

	item, err := p.repo.ItemForUpdate(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item = &models.InventoryItem{
			CompanyID: companyID,
			ProductID: productID,
			Quantity:  quantity,
			WAC:       unitCost,
		}
	} else {
		oldValue := float64(item.Quantity) * item.WAC
		newValue := float64(quantity) * unitCost
		total := item.Quantity + quantity
		item.WAC = (oldValue + newValue) / float64(total)
		item.Quantity = total
	}
	if err := p.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// InventoryValue is the sum of quantity x WAC over a company's stock rows.
func (p *planner) InventoryValue(ctx context.Context, companyID int64) (float64, error) {
	items, err := p.repo.ItemsByCompany(ctx, companyID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.WAC
	}
	return total, nil
}
