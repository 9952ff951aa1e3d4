package report

import (
	"math"

	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

// balanceTolerance is one currency unit; totals within it count as
// balanced.
const balanceTolerance = 1.0

// AccountInfo identifies a ledger account in the trial balance.
type AccountInfo struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Level int    `json:"level"`
	Type  string `json:"type"`
}

// LedgerRow is one account row with its movements.
type LedgerRow struct {
	Account        AccountInfo `json:"account"`
	InitialBalance float64     `json:"initial_balance"`
	DebitMovement  float64     `json:"debit_movement"`
	CreditMovement float64     `json:"credit_movement"`
	FinalBalance   float64     `json:"final_balance"`
}

// GroupedAccounts holds trial-balance rows by account class.
type GroupedAccounts struct {
	Assets      []LedgerRow `json:"assets"`
	Liabilities []LedgerRow `json:"liabilities"`
	Equity      []LedgerRow `json:"equity"`
	Income      []LedgerRow `json:"income"`
	Expenses    []LedgerRow `json:"expenses"`
}

// BalanceTotals are the class totals.
type BalanceTotals struct {
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Equity      float64 `json:"equity"`
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
}

// TrialBalance is a simplified approximation reconstructed from
// transactional totals, not a general-ledger read: receivables are
// treated as the sole asset and payables as the sole liability.
type TrialBalance struct {
	Grouped    GroupedAccounts `json:"grouped"`
	Totals     BalanceTotals   `json:"totals"`
	IsBalanced bool            `json:"isBalanced"`
}

// EmptyTrialBalance is the schema-valid zero value. An empty book is
// balanced by definition.
func EmptyTrialBalance() TrialBalance {
	return TrialBalance{
		Grouped: GroupedAccounts{
			Assets:      []LedgerRow{},
			Liabilities: []LedgerRow{},
			Equity:      []LedgerRow{},
			Income:      []LedgerRow{},
			Expenses:    []LedgerRow{},
		},
		IsBalanced: true,
	}
}

// BuildTrialBalance approximates a trial balance from invoices and
// purchases within r, with equity forced to assets minus liabilities so
// the synthetic book closes.
func BuildTrialBalance(invoices []siigo.Invoice, purchases []siigo.Purchase, r DateRange) TrialBalance {
	filteredInvoices := filterInvoices(invoices, r)
	filteredPurchases := filterPurchases(purchases, r)

	var assets, liabilities, income, expenses float64
	for _, inv := range filteredInvoices {
		assets += inv.Balance
		income += inv.Total
	}
	for _, p := range filteredPurchases {
		liabilities += p.Balance
		expenses += p.Total
	}
	equity := assets - liabilities

	return TrialBalance{
		Grouped: GroupedAccounts{
			Assets: []LedgerRow{{
				Account:        AccountInfo{Code: "1305", Name: "Clientes", Level: 4, Type: "Asset"},
				DebitMovement:  income,
				CreditMovement: income - assets,
				FinalBalance:   assets,
			}},
			Liabilities: []LedgerRow{{
				Account:        AccountInfo{Code: "2205", Name: "Proveedores", Level: 4, Type: "Liability"},
				DebitMovement:  expenses - liabilities,
				CreditMovement: expenses,
				FinalBalance:   liabilities,
			}},
			Equity: []LedgerRow{{
				Account:        AccountInfo{Code: "3105", Name: "Capital Social", Level: 4, Type: "Equity"},
				CreditMovement: equity,
				FinalBalance:   equity,
			}},
			Income: []LedgerRow{{
				Account:        AccountInfo{Code: "4135", Name: "Ventas", Level: 4, Type: "Income"},
				CreditMovement: income,
				FinalBalance:   income,
			}},
			Expenses: []LedgerRow{{
				Account:       AccountInfo{Code: "5135", Name: "Compras", Level: 4, Type: "Expense"},
				DebitMovement: expenses,
				FinalBalance:  expenses,
			}},
		},
		Totals: BalanceTotals{
			Assets:      assets,
			Liabilities: liabilities,
			Equity:      equity,
			Income:      income,
			Expenses:    expenses,
		},
		IsBalanced: math.Abs(assets-(liabilities+equity)) < balanceTolerance,
	}
}
