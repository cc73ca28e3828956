package models

import (
	dbtypes "github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/types"
)

// Company is a market participant. Cash is never stored here; it is always
// the derived balance of the company's cash account.
type Company struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name     string `gorm:"column:name;not null;index"`
	IsPlayer bool   `gorm:"column:is_player;not null;default:false"`
	// BrandEquity is a demand multiplier >= 1.0 that decays toward 1.0.
	BrandEquity    float64                `gorm:"column:brand_equity;not null;default:1.0"`
	StrategyMemory dbtypes.StrategyMemory `gorm:"column:strategy_memory;type:jsonb"`
}
