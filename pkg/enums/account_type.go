package enums

// AccountType classifies ledger accounts for reporting.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

func (t AccountType) String() string {
	return string(t)
}

// Account codes in the standard chart. Stored namespaced per company
// ("<companyID>-<code>") so codes stay globally unique.
const (
	AccountCodeCash               = "1000"
	AccountCodeAccountsReceivable = "1100"
	AccountCodeInventory          = "1200"
	AccountCodeWarehouses         = "1500"
	AccountCodeAccountsPayable    = "2000"
	AccountCodeLoansPayable       = "2100"
	AccountCodeOwnersCapital      = "3000"
	AccountCodeRetainedEarnings   = "3100"
	AccountCodeSalesRevenue       = "4000"
	AccountCodeCOGS               = "5000"
	AccountCodeRentExpense        = "5100"
	AccountCodeMarketingExpense   = "5200"
	AccountCodeLogisticsExpense   = "5300"
)
