// Package models defines the GORM models for the simulation's relational
// state. Relationships are expressed as id fields and explicit lookups, not
// bidirectional object graphs.
package models

// All returns every model for migration, ordered parents-first.
func All() []any {
	return []any{
		&Company{},
		&Account{},
		&Transaction{},
		&JournalEntry{},
		&Warehouse{},
		&Product{},
		&CompanyProduct{},
		&InventoryItem{},
		&GameState{},
		&MarketHistory{},
		&FinancialSnapshot{},
		&MarketEvent{},
	}
}
