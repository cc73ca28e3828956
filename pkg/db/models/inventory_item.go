package models

// InventoryItem tracks per-company on-hand stock for a product. WAC is
// recomputed on every purchase and untouched by sales.
type InventoryItem struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID   int64  `gorm:"column:company_id;not null;index:idx_inventory_company_product,unique"`
	ProductID   int64  `gorm:"column:product_id;not null;index:idx_inventory_company_product,unique"`
	WarehouseID *int64 `gorm:"column:warehouse_id"`
	Quantity    int    `gorm:"column:quantity;not null;default:0"`
	// WAC is the weighted average cost per unit.
	WAC float64 `gorm:"column:wac;not null;default:0"`
}
