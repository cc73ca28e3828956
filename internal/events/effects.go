package events

import (
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
)

// Effect is one structured consequence of a decision choice. Kind selects
// which fields are meaningful.
type Effect struct {
	Kind enums.EffectKind `json:"kind"`
	// Amount is the cash delta for CASH_DELTA effects. Negative spends cash.
	Amount float64 `json:"amount,omitempty"`
	// Delta is the brand-equity change for BRAND_EQUITY_DELTA and the
	// conditional change for BRAND_RISK_ROLL.
	Delta float64 `json:"delta,omitempty"`
	// Probability is the chance in [0,1] that a BRAND_RISK_ROLL fires.
	Probability float64 `json:"probability,omitempty"`
	// Months is the length of a DURATION_WINDOW.
	Months int `json:"months,omitempty"`
	// Note describes the effect for turn logs.
	Note string `json:"note,omitempty"`
}

// Choice is one mutually exclusive option on a decision event.
type Choice struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Effects []Effect `json:"effects"`
}

// DecisionPayload is the structured body persisted in MarketEvent.EventData
// for decision events.
type DecisionPayload struct {
	Template string   `json:"template"`
	Title    string   `json:"title"`
	Choices  []Choice `json:"choices"`
}

// ChoiceByID returns the choice with the given id, or nil.
func (p *DecisionPayload) ChoiceByID(id string) *Choice {
	for i := range p.Choices {
		if p.Choices[i].ID == id {
			return &p.Choices[i]
		}
	}
	return nil
}

// EffectOutcome is the applied result of a single effect, suitable for turn
// logs and API responses.
type EffectOutcome struct {
	Kind        enums.EffectKind `json:"kind"`
	CashDelta   float64          `json:"cash_delta,omitempty"`
	BrandDelta  float64          `json:"brand_delta,omitempty"`
	RollFired   bool             `json:"roll_fired,omitempty"`
	Description string           `json:"description"`
}
