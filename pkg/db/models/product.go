package models

// Product is a market-wide good shared across all companies.
type Product struct {
	ID       int64   `gorm:"column:id;primaryKey;autoIncrement"`
	SKU      string  `gorm:"column:sku;not null;uniqueIndex"`
	Name     string  `gorm:"column:name;not null;uniqueIndex"`
	BaseCost float64 `gorm:"column:base_cost;not null"`
	// BasePrice is the long-run catalog anchor, distinct from the listed
	// prices companies compete on.
	BasePrice float64 `gorm:"column:base_price;not null"`
}
