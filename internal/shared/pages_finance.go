package shared

// Finance pages.
const (
	PageInvoices = "finance/invoices"
	PageExpenses = "finance/expenses"
	PageAssets   = "finance/assets"
)

// FinancePages lists the invoicing and asset surfaces.
func FinancePages() []PageDef {
	return []PageDef{
		{Path: PageInvoices, Module: "finance", Name: "Invoices"},
		{Path: PageExpenses, Module: "finance", Name: "Expenses"},
		{Path: PageAssets, Module: "finance", Submodule: "assets", Name: "Fixed Assets"},
	}
}
