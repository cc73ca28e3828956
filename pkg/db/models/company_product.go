package models

// CompanyProduct is a company's listing for a product: its selling price
// and cumulative sales counters.
type CompanyProduct struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID int64   `gorm:"column:company_id;not null;index:idx_company_product,unique"`
	ProductID int64   `gorm:"column:product_id;not null;index:idx_company_product,unique"`
	Price     float64 `gorm:"column:price;not null;default:0"`
	UnitsSold int     `gorm:"column:units_sold;not null;default:0"`
	Revenue   float64 `gorm:"column:revenue;not null;default:0"`
}
