package report

import (
	"sort"
	"strings"
	"time"

	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

const topN = 10

// Aging buckets outstanding balances by how long they have been unpaid.
type Aging struct {
	Current float64 `json:"current"`
	Days30  float64 `json:"days30"`
	Days60  float64 `json:"days60"`
	Days90  float64 `json:"days90"`
}

// OverdueSummary totals everything older than the current bucket.
type OverdueSummary struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Debtor is one customer's outstanding position.
type Debtor struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Total       float64 `json:"total"`
	Count       int     `json:"count"`
	DaysOverdue int     `json:"daysOverdue"`
}

// Receivables is the accounts-receivable view.
type Receivables struct {
	Total      float64        `json:"total"`
	Count      int            `json:"count"`
	Overdue    OverdueSummary `json:"overdue"`
	Aging      Aging          `json:"aging"`
	TopDebtors []Debtor       `json:"topDebtors"`
}

// EmptyReceivables is the schema-valid zero value.
func EmptyReceivables() Receivables {
	return Receivables{TopDebtors: []Debtor{}}
}

// BuildReceivables derives the receivables view from invoices with an
// outstanding balance. Aging is assigned per customer using the
// customer's oldest unpaid invoice date, and the bucket takes the
// customer's whole outstanding balance rather than splitting it
// per-invoice.
func BuildReceivables(invoices []siigo.Invoice, customers []siigo.Customer, r DateRange, today time.Time) Receivables {
	var open []siigo.Invoice
	for _, inv := range filterInvoices(invoices, r) {
		if inv.Balance > 0 {
			open = append(open, inv)
		}
	}

	names := make(map[string]string, len(customers))
	for _, c := range customers {
		name := strings.TrimSpace(strings.Join(c.Name, " "))
		if name == "" {
			name = c.Identification
		}
		names[c.ID] = name
	}

	type position struct {
		balance float64
		count   int
		oldest  time.Time
	}
	positions := make(map[string]*position)

	var total float64
	for _, inv := range open {
		total += inv.Balance

		date, _ := parseDocDate(inv.Date)
		pos, ok := positions[inv.Customer.ID]
		if !ok {
			positions[inv.Customer.ID] = &position{balance: inv.Balance, count: 1, oldest: date}
			continue
		}
		pos.balance += inv.Balance
		pos.count++
		if date.Before(pos.oldest) {
			pos.oldest = date
		}
	}

	var aging Aging
	debtors := make([]Debtor, 0, len(positions))
	for id, pos := range positions {
		days := daysBetween(pos.oldest, today)
		switch {
		case days <= 30:
			aging.Current += pos.balance
		case days <= 60:
			aging.Days30 += pos.balance
		case days <= 90:
			aging.Days60 += pos.balance
		default:
			aging.Days90 += pos.balance
		}

		name, ok := names[id]
		if !ok || name == "" {
			name = "Cliente Desconocido"
		}
		debtors = append(debtors, Debtor{
			ID:          id,
			Name:        name,
			Total:       pos.balance,
			Count:       pos.count,
			DaysOverdue: days,
		})
	}

	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].Total != debtors[j].Total {
			return debtors[i].Total > debtors[j].Total
		}
		return debtors[i].ID < debtors[j].ID
	})
	if len(debtors) > topN {
		debtors = debtors[:topN]
	}

	overdueCount := 0
	for _, inv := range open {
		if date, ok := parseDocDate(inv.Date); ok && daysBetween(date, today) > 30 {
			overdueCount++
		}
	}

	return Receivables{
		Total: total,
		Count: len(open),
		Overdue: OverdueSummary{
			Total: aging.Days30 + aging.Days60 + aging.Days90,
			Count: overdueCount,
		},
		Aging:      aging,
		TopDebtors: debtors,
	}
}

// daysBetween counts whole days from a to b, truncating partial days.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
