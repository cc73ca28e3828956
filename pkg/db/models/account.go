package models

import (
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
)

// Account is one ledger account in a company's chart. Balances are never
// stored; they are derived from journal entries.
type Account struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID int64             `gorm:"column:company_id;not null;index"`
	Code      string            `gorm:"column:code;not null;uniqueIndex"`
	Name      string            `gorm:"column:name;not null"`
	Type      enums.AccountType `gorm:"column:type;not null"`
}
