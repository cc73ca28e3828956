package models

// MarketHistory is the append-only per-company-per-product-per-turn record
// used as the substrate for demand forecasting.
type MarketHistory struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID int64 `gorm:"column:company_id;not null;index"`
	ProductID int64 `gorm:"column:product_id;not null;index"`
	Month     int   `gorm:"column:month;not null;index:idx_market_history_turn"`
	Year      int   `gorm:"column:year;not null;index:idx_market_history_turn"`

	Price     float64 `gorm:"column:price;not null"`
	UnitsSold int     `gorm:"column:units_sold;not null"`
	Revenue   float64 `gorm:"column:revenue;not null"`
	// DemandCaptured is the raw demand allocated, before inventory clamping.
	DemandCaptured float64 `gorm:"column:demand_captured;not null"`
}
