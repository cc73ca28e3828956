package models

import "time"

// Transaction is one atomic economic event. Its journal entries always sum
// to zero; rows are created once and never mutated.
type Transaction struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID   int64     `gorm:"column:company_id;not null;index"`
	Description string    `gorm:"column:description;not null"`
	Date        time.Time `gorm:"column:date;autoCreateTime"`
}
