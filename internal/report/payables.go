package report

import (
	"sort"
	"time"

	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

const dueSoonWindow = 30 * 24 * time.Hour

// Supplier is one vendor's outstanding position.
type Supplier struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// SupplierRef names the vendor on a due purchase.
type SupplierRef struct {
	Name string `json:"name"`
}

// DuePurchase is one purchase due within the next 30 days.
type DuePurchase struct {
	ID       string      `json:"id"`
	Supplier SupplierRef `json:"supplier"`
	Balance  float64     `json:"balance"`
	Date     string      `json:"date"`
}

// Payables is the accounts-payable view.
type Payables struct {
	Total      float64       `json:"total"`
	Count      int           `json:"count"`
	BySupplier []Supplier    `json:"bySupplier"`
	DueSoon    []DuePurchase `json:"dueSoon"`
}

// EmptyPayables is the schema-valid zero value.
func EmptyPayables() Payables {
	return Payables{BySupplier: []Supplier{}, DueSoon: []DuePurchase{}}
}

// BuildPayables derives the payables view from purchases with an
// outstanding balance. Purchases missing a vendor reference still count
// toward the total but are excluded from the per-supplier grouping.
func BuildPayables(purchases []siigo.Purchase, r DateRange, today time.Time) Payables {
	var open []siigo.Purchase
	for _, p := range filterPurchases(purchases, r) {
		if p.Balance > 0 {
			open = append(open, p)
		}
	}

	var total float64
	grouped := make(map[string]*Supplier)
	for _, p := range open {
		total += p.Balance

		if p.Vendor.ID == "" {
			continue
		}
		s, ok := grouped[p.Vendor.ID]
		if !ok {
			name := p.Vendor.Name
			if name == "" {
				name = "Proveedor sin nombre"
			}
			grouped[p.Vendor.ID] = &Supplier{ID: p.Vendor.ID, Name: name, Total: p.Balance, Count: 1}
			continue
		}
		s.Total += p.Balance
		s.Count++
	}

	bySupplier := make([]Supplier, 0, len(grouped))
	for _, s := range grouped {
		bySupplier = append(bySupplier, *s)
	}
	sort.Slice(bySupplier, func(i, j int) bool {
		if bySupplier[i].Total != bySupplier[j].Total {
			return bySupplier[i].Total > bySupplier[j].Total
		}
		return bySupplier[i].ID < bySupplier[j].ID
	})
	if len(bySupplier) > topN {
		bySupplier = bySupplier[:topN]
	}

	horizon := today.Add(dueSoonWindow)
	dueSoon := []DuePurchase{}
	for _, p := range open {
		if p.DueDate == "" {
			continue
		}
		due, ok := parseDocDate(p.DueDate)
		if !ok || due.Before(today) || due.After(horizon) {
			continue
		}
		dueSoon = append(dueSoon, DuePurchase{
			ID:       p.ID,
			Supplier: SupplierRef{Name: p.Vendor.Name},
			Balance:  p.Balance,
			Date:     p.DueDate,
		})
	}
	sort.Slice(dueSoon, func(i, j int) bool { return dueSoon[i].Date < dueSoon[j].Date })
	if len(dueSoon) > topN {
		dueSoon = dueSoon[:topN]
	}

	return Payables{
		Total:      total,
		Count:      len(open),
		BySupplier: bySupplier,
		DueSoon:    dueSoon,
	}
}
