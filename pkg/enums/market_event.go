package enums

// MarketEventType identifies the kind of market event in play.
type MarketEventType string

const (
	MarketEventEconomicBoom     MarketEventType = "ECONOMIC_BOOM"
	MarketEventRecession        MarketEventType = "RECESSION"
	MarketEventSupplyDisruption MarketEventType = "SUPPLY_DISRUPTION"
	MarketEventDecision         MarketEventType = "DECISION_EVENT"
)

func (t MarketEventType) String() string {
	return string(t)
}

// IsEconomic reports whether the event moves the economy-wide demand modifier.
func (t MarketEventType) IsEconomic() bool {
	return t == MarketEventEconomicBoom || t == MarketEventRecession
}

// EffectKind discriminates decision-event effect payloads.
type EffectKind string

const (
	EffectCashDelta        EffectKind = "CASH_DELTA"
	EffectBrandEquityDelta EffectKind = "BRAND_EQUITY_DELTA"
	EffectBrandRiskRoll    EffectKind = "BRAND_RISK_ROLL"
	EffectDurationWindow   EffectKind = "DURATION_WINDOW"
)
