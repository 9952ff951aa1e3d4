package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

func inDays(n int) string {
	return agingToday.AddDate(0, 0, n).Format("2006-01-02")
}

func TestBuildPayablesGroupsBySupplier(t *testing.T) {
	purchases := []siigo.Purchase{
		{ID: "1", Date: daysAgo(10), Vendor: siigo.CounterpartRef{ID: "v1", Name: "Proveedor Uno"}, Balance: 500},
		{ID: "2", Date: daysAgo(20), Vendor: siigo.CounterpartRef{ID: "v1", Name: "Proveedor Uno"}, Balance: 300},
		{ID: "3", Date: daysAgo(5), Vendor: siigo.CounterpartRef{ID: "v2"}, Balance: 200},
		{ID: "4", Date: daysAgo(3), Vendor: siigo.CounterpartRef{ID: "v3"}, Balance: 0},
	}

	p := BuildPayables(purchases, yearRange(2026), agingToday)

	assert.Equal(t, 1000.0, p.Total)
	assert.Equal(t, 3, p.Count)

	require.Len(t, p.BySupplier, 2)
	assert.Equal(t, "Proveedor Uno", p.BySupplier[0].Name)
	assert.Equal(t, 800.0, p.BySupplier[0].Total)
	assert.Equal(t, 2, p.BySupplier[0].Count)
	assert.Equal(t, "Proveedor sin nombre", p.BySupplier[1].Name)
}

func TestBuildPayablesCountsVendorlessPurchasesInTotal(t *testing.T) {
	purchases := []siigo.Purchase{
		{ID: "1", Date: daysAgo(10), Balance: 400},
		{ID: "2", Date: daysAgo(10), Vendor: siigo.CounterpartRef{ID: "v1", Name: "Uno"}, Balance: 100},
	}

	p := BuildPayables(purchases, yearRange(2026), agingToday)

	assert.Equal(t, 500.0, p.Total)
	assert.Len(t, p.BySupplier, 1, "vendorless purchases are not grouped")
}

func TestBuildPayablesDueSoonWindow(t *testing.T) {
	purchases := []siigo.Purchase{
		{ID: "past", Date: daysAgo(40), DueDate: daysAgo(5), Vendor: siigo.CounterpartRef{ID: "v1"}, Balance: 100},
		{ID: "soon", Date: daysAgo(10), DueDate: inDays(10), Vendor: siigo.CounterpartRef{ID: "v1", Name: "Uno"}, Balance: 200},
		{ID: "later", Date: daysAgo(10), DueDate: inDays(45), Vendor: siigo.CounterpartRef{ID: "v1"}, Balance: 300},
		{ID: "edge", Date: daysAgo(10), DueDate: inDays(30), Vendor: siigo.CounterpartRef{ID: "v2"}, Balance: 400},
		{ID: "undated", Date: daysAgo(10), Vendor: siigo.CounterpartRef{ID: "v2"}, Balance: 500},
	}

	p := BuildPayables(purchases, yearRange(2026), agingToday)

	require.Len(t, p.DueSoon, 2, "only due dates inside the next 30 days qualify")
	assert.Equal(t, "soon", p.DueSoon[0].ID, "due-soon list is sorted by due date")
	assert.Equal(t, "Uno", p.DueSoon[0].Supplier.Name)
	assert.Equal(t, "edge", p.DueSoon[1].ID)
}

func TestBuildPayablesEmptyInput(t *testing.T) {
	p := BuildPayables(nil, yearRange(2026), agingToday)

	assert.Zero(t, p.Total)
	assert.NotNil(t, p.BySupplier)
	assert.NotNil(t, p.DueSoon)
}
