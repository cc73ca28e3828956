package models

import "time"

// GameState is the singleton calendar row, the single source of truth for
// the simulated month and year.
type GameState struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CurrentMonth int       `gorm:"column:current_month;not null;default:1"`
	CurrentYear  int       `gorm:"column:current_year;not null;default:2026"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
