package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/errors"
)

// decisionTemplates is the fixed library a decision event is drawn from.
var decisionTemplates = []DecisionPayload{
	{
		Template: "supplier_exclusivity",
		Title:    "Supplier Exclusivity Offer",
		Choices: []Choice{
			{
				ID:    "CHOICE_A",
				Label: "Sign the exclusivity contract ($15,000 upfront, preferred terms for 3 months)",
				Effects: []Effect{
					{Kind: enums.EffectCashDelta, Amount: -15000, Note: "exclusivity contract signing fee"},
					{Kind: enums.EffectDurationWindow, Months: 3, Note: "preferred supplier terms window"},
				},
			},
			{
				ID:      "CHOICE_B",
				Label:   "Decline and keep sourcing on the open market",
				Effects: []Effect{},
			},
		},
	},
	{
		Template: "viral_marketing",
		Title:    "Viral Marketing Opportunity",
		Choices: []Choice{
			{
				ID:    "CHOICE_A",
				Label: "Fund a full campaign ($10,000)",
				Effects: []Effect{
					{Kind: enums.EffectCashDelta, Amount: -10000, Note: "campaign production"},
					{Kind: enums.EffectBrandEquityDelta, Delta: 0.3, Note: "campaign brand lift"},
				},
			},
			{
				ID:    "CHOICE_B",
				Label: "Boost the organic post only ($2,500)",
				Effects: []Effect{
					{Kind: enums.EffectCashDelta, Amount: -2500, Note: "post boost"},
					{Kind: enums.EffectBrandRiskRoll, Probability: 0.5, Delta: 0.15, Note: "post may go viral"},
				},
			},
			{
				ID:      "CHOICE_C",
				Label:   "Let the moment pass",
				Effects: []Effect{},
			},
		},
	},
	{
		Template: "product_recall",
		Title:    "Product Recall Scare",
		Choices: []Choice{
			{
				ID:    "CHOICE_A",
				Label: "Issue a proactive recall ($8,000)",
				Effects: []Effect{
					{Kind: enums.EffectCashDelta, Amount: -8000, Note: "recall logistics"},
					{Kind: enums.EffectBrandEquityDelta, Delta: 0.1, Note: "goodwill from transparency"},
				},
			},
			{
				ID:    "CHOICE_B",
				Label: "Deny the reports and wait it out",
				Effects: []Effect{
					{Kind: enums.EffectBrandRiskRoll, Probability: 0.4, Delta: -0.2, Note: "story may gain traction"},
				},
			},
		},
	},
	{
		Template: "logistics_strike",
		Title:    "Carrier Strike",
		Choices: []Choice{
			{
				ID:    "CHOICE_A",
				Label: "Pay premium carriers to keep shipping ($5,000)",
				Effects: []Effect{
					{Kind: enums.EffectCashDelta, Amount: -5000, Note: "premium carrier surcharge"},
				},
			},
			{
				ID:    "CHOICE_B",
				Label: "Delay shipments until the strike ends",
				Effects: []Effect{
					{Kind: enums.EffectBrandEquityDelta, Delta: -0.1, Note: "late-delivery complaints"},
				},
			},
		},
	},
}

// triggerDecisionEvent creates a decision event with a one-turn deadline,
// unless one is already awaiting an answer.
func (e *Engine) triggerDecisionEvent(ctx context.Context, month, year int) (*models.MarketEvent, error) {
	pending, err := e.repo.UnresolvedDecisionEvents(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, nil
	}

	payload := decisionTemplates[e.rand.IntN(len(decisionTemplates))]
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding decision payload: %w", err)
	}

	deadlineMonth, deadlineYear := nextTurn(month, year)
	event := &models.MarketEvent{
		EventType:              enums.MarketEventDecision,
		StartMonth:             month,
		StartYear:              year,
		DurationMonths:         2,
		Intensity:              1.0,
		Description:            payload.Title,
		RequiresPlayerDecision: true,
		DecisionDeadlineMonth:  &deadlineMonth,
		DecisionDeadlineYear:   &deadlineYear,
		EventData:              data,
	}
	if err := e.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func nextTurn(month, year int) (int, int) {
	if month == 12 {
		return 1, year + 1
	}
	return month + 1, year
}

// PendingDecision is one unresolved decision event shaped for callers.
type PendingDecision struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Choices       []Choice `json:"choices"`
	DeadlineMonth int      `json:"deadline_month"`
	DeadlineYear  int      `json:"deadline_year"`
}

// PendingDecisionEvents lists the unresolved decision events.
func (e *Engine) PendingDecisionEvents(ctx context.Context) ([]PendingDecision, error) {
	rows, err := e.repo.UnresolvedDecisionEvents(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]PendingDecision, 0, len(rows))
	for _, row := range rows {
		var payload DecisionPayload
		if err := json.Unmarshal(row.EventData, &payload); err != nil {
			return nil, fmt.Errorf("decoding decision payload for event %d: %w", row.ID, err)
		}
		decision := PendingDecision{
			ID:          row.ID,
			Title:       payload.Title,
			Description: row.Description,
			Choices:     payload.Choices,
		}
		if row.DecisionDeadlineMonth != nil {
			decision.DeadlineMonth = *row.DecisionDeadlineMonth
		}
		if row.DecisionDeadlineYear != nil {
			decision.DeadlineYear = *row.DecisionDeadlineYear
		}
		pending = append(pending, decision)
	}
	return pending, nil
}

// ResolveDecision validates and records the player's choice, freezing the
// event against further processing. The chosen effects are returned for the
// caller to apply.
func (e *Engine) ResolveDecision(ctx context.Context, eventID int64, choiceID string) ([]Effect, error) {
	event, err := e.repo.ByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil || event.EventType != enums.MarketEventDecision {
		return nil, errors.New(errors.CodeNotFound, "decision event not found").
			WithDetails(map[string]any{"event_id": eventID})
	}
	if event.DecisionMade {
		return nil, errors.New(errors.CodeAlreadyDecided, "decision already made").
			WithDetails(map[string]any{"event_id": eventID, "choice": event.PlayerDecision})
	}

	var payload DecisionPayload
	if err := json.Unmarshal(event.EventData, &payload); err != nil {
		return nil, fmt.Errorf("decoding decision payload for event %d: %w", event.ID, err)
	}
	choice := payload.ChoiceByID(choiceID)
	if choice == nil {
		return nil, errors.New(errors.CodeInvalidChoice, "no such choice on this event").
			WithDetails(map[string]any{"event_id": eventID, "choice_id": choiceID})
	}

	event.DecisionMade = true
	event.PlayerDecision = &choice.ID
	if err := e.repo.Save(ctx, event); err != nil {
		return nil, err
	}
	return choice.Effects, nil
}

// EvaluateEffects runs the effect dispatcher: risk rolls are resolved with
// the engine's random source and every effect is reduced to concrete cash and
// brand deltas for the caller to apply.
func (e *Engine) EvaluateEffects(effects []Effect) []EffectOutcome {
	outcomes := make([]EffectOutcome, 0, len(effects))
	for _, effect := range effects {
		switch effect.Kind {
		case enums.EffectCashDelta:
			outcomes = append(outcomes, EffectOutcome{
				Kind:        effect.Kind,
				CashDelta:   effect.Amount,
				Description: fmt.Sprintf("%s: cash %+.2f", effect.Note, effect.Amount),
			})
		case enums.EffectBrandEquityDelta:
			outcomes = append(outcomes, EffectOutcome{
				Kind:        effect.Kind,
				BrandDelta:  effect.Delta,
				Description: fmt.Sprintf("%s: brand equity %+.2f", effect.Note, effect.Delta),
			})
		case enums.EffectBrandRiskRoll:
			fired := e.rand.Float64() < effect.Probability
			outcome := EffectOutcome{
				Kind:      effect.Kind,
				RollFired: fired,
			}
			if fired {
				outcome.BrandDelta = effect.Delta
				outcome.Description = fmt.Sprintf("%s: roll fired, brand equity %+.2f", effect.Note, effect.Delta)
			} else {
				outcome.Description = fmt.Sprintf("%s: roll did not fire", effect.Note)
			}
			outcomes = append(outcomes, outcome)
		case enums.EffectDurationWindow:
			// logged only, no recurring mechanism
			outcomes = append(outcomes, EffectOutcome{
				Kind:        effect.Kind,
				Description: fmt.Sprintf("%s: %d-month window noted", effect.Note, effect.Months),
			})
		}
	}
	return outcomes
}
