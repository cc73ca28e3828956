// Package events manages the lifecycle of market events: seasonal patterns,
// economic cycles with tiered intensity, supply disruptions and player
// decision events.
package events

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/rng"
)

const (
	economicEventChance = 0.25
	supplyEventChance   = 0.15
	decisionEventChance = 0.20

	softenChance = 0.25
	worsenChance = 0.10

	// ladder indexes
	levelMild     = 0
	levelModerate = 1
	levelExtreme  = 3
)

// recessionLadder and boomLadder hold the four discrete intensity multipliers
// per polarity, mild first.
var (
	recessionLadder = [4]float64{0.92, 0.85, 0.75, 0.60}
	recessionNames  = [4]string{"Mild", "Moderate", "Severe", "Crisis"}
	boomLadder      = [4]float64{1.10, 1.20, 1.30, 1.45}
	boomNames       = [4]string{"Mild", "Moderate", "Strong", "Exceptional"}
)

func economicIntensity(eventType enums.MarketEventType, level int) (float64, string) {
	if level < levelMild {
		level = levelMild
	}
	if level > levelExtreme {
		level = levelExtreme
	}
	if eventType == enums.MarketEventRecession {
		return recessionLadder[level], recessionNames[level]
	}
	return boomLadder[level], boomNames[level]
}

// DemandBreakdown records each modifier applied to a base demand figure.
type DemandBreakdown struct {
	Base     float64 `json:"base"`
	Seasonal float64 `json:"seasonal"`
	Economic float64 `json:"economic"`
	Final    float64 `json:"final"`
}

// Engine drives the market-event state machine. Methods that depend on the
// calendar take the turn explicitly; the engine itself is stateless between
// calls.
type Engine struct {
	repo Repository
	rand *rng.Source
	log  *logger.Logger
}

// NewEngine wires an events engine.
func NewEngine(repo Repository, rand *rng.Source, log *logger.Logger) (*Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	if rand == nil {
		return nil, fmt.Errorf("random source required")
	}
	return &Engine{repo: repo, rand: rand, log: log}, nil
}

// WithTx returns an engine whose writes join the provided transaction.
func (e *Engine) WithTx(tx *gorm.DB) *Engine {
	if tx == nil {
		return e
	}
	return &Engine{repo: e.repo.WithTx(tx), rand: e.rand, log: e.log}
}

// TriggerRandomEvents rolls this turn's event dice: an economy-wide boom or
// recession, a per-product supply disruption, and a player decision event.
// Returns the newly created events.
func (e *Engine) TriggerRandomEvents(ctx context.Context, month, year int) ([]models.MarketEvent, error) {
	var created []models.MarketEvent

	if e.rand.Float64() < economicEventChance {
		event, err := e.triggerEconomicEvent(ctx, month, year)
		if err != nil {
			return nil, err
		}
		if event != nil {
			created = append(created, *event)
		}
	}

	if e.rand.Float64() < supplyEventChance {
		event, err := e.triggerSupplyDisruption(ctx, month, year)
		if err != nil {
			return nil, err
		}
		if event != nil {
			created = append(created, *event)
		}
	}

	if e.rand.Float64() < decisionEventChance {
		event, err := e.triggerDecisionEvent(ctx, month, year)
		if err != nil {
			return nil, err
		}
		if event != nil {
			created = append(created, *event)
		}
	}

	return created, nil
}

// triggerEconomicEvent applies the conflict and stacking rules:
//   - no active economic event: new event starts at Moderate
//   - same polarity active: step its level up and extend it, no new row
//   - opposite polarity active: cancel it and start fresh at Mild
func (e *Engine) triggerEconomicEvent(ctx context.Context, month, year int) (*models.MarketEvent, error) {
	eventType := enums.MarketEventEconomicBoom
	if e.rand.Float64() < 0.5 {
		eventType = enums.MarketEventRecession
	}
	return e.applyEconomicTrigger(ctx, eventType, month, year)
}

func (e *Engine) applyEconomicTrigger(ctx context.Context, eventType enums.MarketEventType, month, year int) (*models.MarketEvent, error) {
	existing, err := e.repo.ActiveEconomicEvent(ctx)
	if err != nil {
		return nil, err
	}

	level := levelModerate
	if existing != nil {
		if existing.EventType == eventType {
			return nil, e.stackEconomicEvent(ctx, existing)
		}
		existing.DurationMonths = 0
		if err := e.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		if e.log != nil {
			e.log.Info(ctx, fmt.Sprintf("economic reversal: %s cancelled by incoming %s", existing.EventType, eventType))
		}
		level = levelMild
	}

	intensity, levelName := economicIntensity(eventType, level)
	duration := e.rand.Range(2, 4)
	event := &models.MarketEvent{
		EventType:      eventType,
		StartMonth:     month,
		StartYear:      year,
		DurationMonths: duration,
		Intensity:      intensity,
		Level:          level,
		Description:    economicDescription(eventType, levelName, intensity, duration),
	}
	if err := e.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (e *Engine) stackEconomicEvent(ctx context.Context, event *models.MarketEvent) error {
	if event.Level < levelExtreme {
		event.Level++
	}
	extension := e.rand.Range(1, 2)
	event.DurationMonths += extension

	intensity, levelName := economicIntensity(event.EventType, event.Level)
	event.Intensity = intensity
	event.Description = economicDescription(event.EventType, levelName, intensity, event.DurationMonths)
	if e.log != nil {
		e.log.Info(ctx, fmt.Sprintf("economic event deepens: %s now %s for %d more months",
			event.EventType, levelName, event.DurationMonths))
	}
	return e.repo.Save(ctx, event)
}

func economicDescription(eventType enums.MarketEventType, levelName string, intensity float64, duration int) string {
	pct := int((intensity - 1) * 100)
	if eventType == enums.MarketEventRecession {
		return fmt.Sprintf("%s Recession: market demand %d%% for %d months", levelName, pct, duration)
	}
	return fmt.Sprintf("%s Economic Boom: market demand +%d%% for %d months", levelName, pct, duration)
}

func (e *Engine) triggerSupplyDisruption(ctx context.Context, month, year int) (*models.MarketEvent, error) {
	products, err := e.repo.Products(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	product := products[e.rand.IntN(len(products))]

	// one active disruption per product
	existing, err := e.repo.ActiveSupplyDisruption(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	duration := e.rand.Range(1, 2)
	costIncrease := 1.20
	if e.rand.Float64() < 0.5 {
		costIncrease = 1.30
	}
	plural := ""
	if duration > 1 {
		plural = "s"
	}
	event := &models.MarketEvent{
		EventType:         enums.MarketEventSupplyDisruption,
		StartMonth:        month,
		StartYear:         year,
		DurationMonths:    duration,
		Intensity:         costIncrease,
		AffectedProductID: &product.ID,
		Description: fmt.Sprintf("Supply Chain Disruption: %s costs +%d%% for %d month%s",
			product.Name, int((costIncrease-1)*100), duration, plural),
	}
	if err := e.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ProcessEconomicEvolution gives every active economic event one draw: a 25%
// chance to soften one level toward neutral and a further 10% to worsen one
// level away from it. A single draw drives both so they are mutually
// exclusive.
func (e *Engine) ProcessEconomicEvolution(ctx context.Context) ([]models.MarketEvent, error) {
	active, err := e.repo.ActiveEvents(ctx)
	if err != nil {
		return nil, err
	}
	var changed []models.MarketEvent
	for i := range active {
		event := &active[i]
		if !event.EventType.IsEconomic() {
			continue
		}
		draw := e.rand.Float64()
		switch {
		case draw < softenChance:
			if event.Level <= levelMild {
				continue
			}
			event.Level--
		case draw < softenChance+worsenChance:
			if event.Level >= levelExtreme {
				continue
			}
			event.Level++
		default:
			continue
		}
		intensity, levelName := economicIntensity(event.EventType, event.Level)
		event.Intensity = intensity
		event.Description = economicDescription(event.EventType, levelName, intensity, event.DurationMonths)
		if err := e.repo.Save(ctx, event); err != nil {
			return nil, err
		}
		changed = append(changed, *event)
	}
	return changed, nil
}

// EconomicModifier returns the active boom/recession intensity, or 1.0.
func (e *Engine) EconomicModifier(ctx context.Context) (float64, error) {
	event, err := e.repo.ActiveEconomicEvent(ctx)
	if err != nil {
		return 0, err
	}
	if event == nil {
		return 1.0, nil
	}
	return event.Intensity, nil
}

// CostModifier returns the active supply-disruption intensity for the
// product, or 1.0.
func (e *Engine) CostModifier(ctx context.Context, productID int64) (float64, error) {
	event, err := e.repo.ActiveSupplyDisruption(ctx, productID)
	if err != nil {
		return 0, err
	}
	if event == nil {
		return 1.0, nil
	}
	return event.Intensity, nil
}

// ApplyDemandModifiers scales a base demand figure by the seasonal pattern
// and the economic cycle, returning the full breakdown for logging.
func (e *Engine) ApplyDemandModifiers(ctx context.Context, baseDemand float64, month int, productName string) (float64, DemandBreakdown, error) {
	seasonal := SeasonalModifier(month, productName)
	economic, err := e.EconomicModifier(ctx)
	if err != nil {
		return 0, DemandBreakdown{}, err
	}
	final := baseDemand * seasonal * economic
	return final, DemandBreakdown{
		Base:     baseDemand,
		Seasonal: seasonal,
		Economic: economic,
		Final:    final,
	}, nil
}

// ActiveEvents lists every event still in play.
func (e *Engine) ActiveEvents(ctx context.Context) ([]models.MarketEvent, error) {
	return e.repo.ActiveEvents(ctx)
}

// DecrementDurations ages every active event by one month and purges the
// expired ones, returning how many were removed.
func (e *Engine) DecrementDurations(ctx context.Context) (int64, error) {
	if err := e.repo.DecrementDurations(ctx); err != nil {
		return 0, err
	}
	return e.repo.DeleteExpired(ctx)
}

// Scaler adapts the engine to per-product demand scaling for a fixed turn.
type Scaler struct {
	Engine *Engine
	Month  int
}

// DemandScale combines the seasonal and economic modifiers for the product.
func (s Scaler) DemandScale(ctx context.Context, productID int64) (float64, error) {
	product, err := s.Engine.repo.ProductByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	name := ""
	if product != nil {
		name = product.Name
	}
	economic, err := s.Engine.EconomicModifier(ctx)
	if err != nil {
		return 0, err
	}
	return SeasonalModifier(s.Month, name) * economic, nil
}
