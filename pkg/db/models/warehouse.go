package models

// Warehouse holds a company's stock and charges monthly rent.
type Warehouse struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID   int64   `gorm:"column:company_id;not null;index"`
	Name        string  `gorm:"column:name;not null"`
	Location    string  `gorm:"column:location"`
	Capacity    int     `gorm:"column:capacity;not null;default:0"`
	MonthlyCost float64 `gorm:"column:monthly_cost;not null;default:0"`
}
