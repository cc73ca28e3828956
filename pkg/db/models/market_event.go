package models

import (
	"encoding/json"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
)

// MarketEvent is a time-boxed market modifier. Economic events carry a
// ladder level alongside the intensity multiplier; decision events carry
// their choice payload in EventData.
type MarketEvent struct {
	ID             int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	EventType      enums.MarketEventType `gorm:"column:event_type;not null;index"`
	StartMonth     int                   `gorm:"column:start_month;not null"`
	StartYear      int                   `gorm:"column:start_year;not null"`
	DurationMonths int                   `gorm:"column:duration_months;not null"`
	Intensity      float64               `gorm:"column:intensity;not null;default:1.0"`
	// Level indexes the economic intensity ladder (0 = mild ... 3 = extreme);
	// unused for non-economic events.
	Level             int     `gorm:"column:level;not null;default:0"`
	AffectedProductID *int64  `gorm:"column:affected_product_id"`
	Description       string  `gorm:"column:description;not null"`

	RequiresPlayerDecision bool            `gorm:"column:requires_player_decision;not null;default:false"`
	DecisionDeadlineMonth  *int            `gorm:"column:decision_deadline_month"`
	DecisionDeadlineYear   *int            `gorm:"column:decision_deadline_year"`
	PlayerDecision         *string         `gorm:"column:player_decision"`
	DecisionMade           bool            `gorm:"column:decision_made;not null;default:false"`
	EventData              json.RawMessage `gorm:"column:event_data;type:jsonb"`
}
