package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StrategyMemory is a bot company's accumulated record of operational
// failures, persisted as a jsonb column. Maps are keyed by product id.
type StrategyMemory struct {
	Stockouts      map[int64]float64 `json:"stockouts"`
	PricingRegret  map[int64]float64 `json:"pricing_regret"`
	InventoryWaste map[int64]int     `json:"inventory_waste"`
	Adaptations    []Adaptation      `json:"adaptations"`
	// MarketingBudgetPct overrides the personality's marketing budget when set.
	MarketingBudgetPct *float64 `json:"marketing_budget_pct,omitempty"`
}

// Adaptation records one behavioural change a bot made and why.
type Adaptation struct {
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Reason     string `json:"reason"`
	Adjustment string `json:"adjustment"`
}

// NewStrategyMemory returns an empty memory with all maps allocated.
func NewStrategyMemory() StrategyMemory {
	return StrategyMemory{
		Stockouts:      map[int64]float64{},
		PricingRegret:  map[int64]float64{},
		InventoryWaste: map[int64]int{},
	}
}

func (m *StrategyMemory) ensure() {
	if m.Stockouts == nil {
		m.Stockouts = map[int64]float64{}
	}
	if m.PricingRegret == nil {
		m.PricingRegret = map[int64]float64{}
	}
	if m.InventoryWaste == nil {
		m.InventoryWaste = map[int64]int{}
	}
}

// RecordStockout bumps the stockout severity for a product.
func (m *StrategyMemory) RecordStockout(productID int64) float64 {
	m.ensure()
	m.Stockouts[productID]++
	return m.Stockouts[productID]
}

// DecayStockouts ages all stockout severities by the given step, dropping
// entries that reach zero.
func (m *StrategyMemory) DecayStockouts(step float64) {
	m.ensure()
	for id, sev := range m.Stockouts {
		sev -= step
		if sev <= 0 {
			delete(m.Stockouts, id)
			continue
		}
		m.Stockouts[id] = sev
	}
}

// TotalStockoutSeverity aggregates severity across all products.
func (m *StrategyMemory) TotalStockoutSeverity() float64 {
	total := 0.0
	for _, sev := range m.Stockouts {
		total += sev
	}
	return total
}

// AccrueRegret bumps the pricing-regret score for a product.
func (m *StrategyMemory) AccrueRegret(productID int64) float64 {
	m.ensure()
	m.PricingRegret[productID]++
	return m.PricingRegret[productID]
}

// DecayRegret ages a product's regret score, flooring at zero.
func (m *StrategyMemory) DecayRegret(productID int64, step float64) {
	m.ensure()
	score := m.PricingRegret[productID] - step
	if score <= 0 {
		delete(m.PricingRegret, productID)
		return
	}
	m.PricingRegret[productID] = score
}

// Regret returns the current regret score for a product.
func (m *StrategyMemory) Regret(productID int64) float64 {
	if m.PricingRegret == nil {
		return 0
	}
	return m.PricingRegret[productID]
}

// RecordWaste extends the unsold-inventory streak for a product.
func (m *StrategyMemory) RecordWaste(productID int64) int {
	m.ensure()
	m.InventoryWaste[productID]++
	return m.InventoryWaste[productID]
}

// ResetWaste clears the streak once sell-through recovers.
func (m *StrategyMemory) ResetWaste(productID int64) {
	if m.InventoryWaste != nil {
		delete(m.InventoryWaste, productID)
	}
}

// AddAdaptation appends an adaptation event to the memory's history.
func (m *StrategyMemory) AddAdaptation(month, year int, reason, adjustment string) {
	m.Adaptations = append(m.Adaptations, Adaptation{
		Month:      month,
		Year:       year,
		Reason:     reason,
		Adjustment: adjustment,
	})
}

func (m *StrategyMemory) Scan(src any) error {
	if src == nil {
		*m = NewStrategyMemory()
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("StrategyMemory: unsupported Scan type %T", src)
	}

	if len(raw) == 0 {
		*m = NewStrategyMemory()
		return nil
	}
	if err := json.Unmarshal(raw, m); err != nil {
		return fmt.Errorf("StrategyMemory: decode: %w", err)
	}
	m.ensure()
	return nil
}

func (m StrategyMemory) Value() (driver.Value, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("StrategyMemory: encode: %w", err)
	}
	return string(raw), nil
}
