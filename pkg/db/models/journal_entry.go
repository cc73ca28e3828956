package models

// JournalEntry is one signed posting to an account. Positive amounts are
// debits, negative amounts are credits.
type JournalEntry struct {
	ID            int64   `gorm:"column:id;primaryKey;autoIncrement"`
	TransactionID int64   `gorm:"column:transaction_id;not null;index"`
	AccountID     int64   `gorm:"column:account_id;not null;index"`
	Amount        float64 `gorm:"column:amount;not null"`
}
