// Package report derives aggregate financial views from raw SIIGO
// records. Every builder is a pure function: it re-filters its input by
// the caller's date range (the provider's own date filter is advisory),
// treats empty input as valid and evaluates every zero-denominator
// ratio to 0.
package report

import "github.com/grupoip3/siigo-dashboard-service/internal/siigo"

// expenseRatio estimates expenses as a share of gross income. Purchase
// records are not used here; this is the documented legacy heuristic,
// kept as-is.
const expenseRatio = 0.70

// IncomeSummary aggregates sales invoices.
type IncomeSummary struct {
	Total      float64 `json:"total"`
	Invoices   int     `json:"invoices"`
	Average    float64 `json:"average"`
	Taxes      float64 `json:"taxes"`
	Retentions float64 `json:"retentions"`
	Net        float64 `json:"net"`
}

// ExpenseSummary aggregates the expense side of the P&L.
type ExpenseSummary struct {
	Total     float64 `json:"total"`
	Purchases int     `json:"purchases"`
	Average   float64 `json:"average"`
}

// ProfitLoss is the profit & loss view.
type ProfitLoss struct {
	Income    IncomeSummary  `json:"income"`
	Expenses  ExpenseSummary `json:"expenses"`
	NetProfit float64        `json:"netProfit"`
	Margin    float64        `json:"margin"`
}

// EmptyProfitLoss is the schema-valid zero value served when SIIGO is
// unreachable or unconfigured.
func EmptyProfitLoss() ProfitLoss {
	return ProfitLoss{}
}

// BuildProfitLoss derives the P&L from sales invoices within r.
func BuildProfitLoss(invoices []siigo.Invoice, r DateRange) ProfitLoss {
	filtered := filterInvoices(invoices, r)

	var totalSales, totalTaxes, totalRetentions float64
	for _, inv := range filtered {
		totalSales += inv.Total
		for _, item := range inv.Items {
			for _, tax := range item.Taxes {
				totalTaxes += tax.Value
			}
		}
		for _, ret := range inv.Retentions {
			totalRetentions += ret.Value
		}
	}

	netIncome := totalSales - totalRetentions
	estimatedExpenses := totalSales * expenseRatio
	netProfit := netIncome - estimatedExpenses

	pl := ProfitLoss{
		Income: IncomeSummary{
			Total:      totalSales,
			Invoices:   len(filtered),
			Taxes:      totalTaxes,
			Retentions: totalRetentions,
			Net:        netIncome,
		},
		Expenses: ExpenseSummary{
			Total: estimatedExpenses,
		},
		NetProfit: netProfit,
	}
	if len(filtered) > 0 {
		pl.Income.Average = totalSales / float64(len(filtered))
	}
	if totalSales > 0 {
		pl.Margin = netProfit / totalSales * 100
	}
	return pl
}

func filterInvoices(invoices []siigo.Invoice, r DateRange) []siigo.Invoice {
	var out []siigo.Invoice
	for _, inv := range invoices {
		if t, ok := parseDocDate(inv.Date); ok && r.Contains(t) {
			out = append(out, inv)
		}
	}
	return out
}

func filterPurchases(purchases []siigo.Purchase, r DateRange) []siigo.Purchase {
	var out []siigo.Purchase
	for _, p := range purchases {
		if t, ok := parseDocDate(p.Date); ok && r.Contains(t) {
			out = append(out, p)
		}
	}
	return out
}
