package models

// FinancialSnapshot is the append-only end-of-turn financial state of one
// company, used for historical reporting only.
type FinancialSnapshot struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID int64 `gorm:"column:company_id;not null;index"`
	Month     int   `gorm:"column:month;not null;index:idx_financial_snapshot_turn"`
	Year      int   `gorm:"column:year;not null;index:idx_financial_snapshot_turn"`

	CashBalance    float64 `gorm:"column:cash_balance;not null"`
	InventoryValue float64 `gorm:"column:inventory_value;not null"`
	TotalAssets    float64 `gorm:"column:total_assets;not null"`
	TotalEquity    float64 `gorm:"column:total_equity;not null"`
	NetIncome      float64 `gorm:"column:net_income;not null"`
}
