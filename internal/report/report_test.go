package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kassa/internal/core"
)

func sale(name string, qty, priceCents int64, method core.PaymentMethod, day core.Day) core.Sale {
	s := core.Sale{
		Name:          name,
		Quantity:      qty,
		PricePerUnit:  core.MoneyFromCents(priceCents),
		PaymentMethod: method,
		SaleDate:      day,
		ShipmentDate:  day,
	}
	s.Normalize()
	return s
}

func TestDailyTotals(t *testing.T) {
	day := core.NewDay(2025, 3, 10)
	d := Daily{
		Date: day,
		Sales: []core.Sale{
			sale("Plywood 12mm", 2, 125000, core.PaymentCash, day),
			sale("Screws", 10, 500, core.PaymentCard, day),
		},
		Expenses: []core.Expense{
			{Reason: "fuel", Amount: core.MoneyFromCents(3000), Date: day},
		},
		CashBalance: core.MoneyFromCents(250000),
	}

	assert.Equal(t, int64(255000), d.SalesTotal().Cents)
	assert.Equal(t, int64(3000), d.ExpensesTotal().Cents)

	byMethod := d.MethodTotals()
	assert.Equal(t, int64(250000), byMethod[core.PaymentCash].Cents)
	assert.Equal(t, int64(5000), byMethod[core.PaymentCard].Cents)
	assert.True(t, byMethod[core.PaymentInvoice].IsZero())
}

func TestRenderDailyText(t *testing.T) {
	day := core.NewDay(2025, 3, 10)
	d := Daily{
		Date:        day,
		Sales:       []core.Sale{sale("Plywood 12mm", 2, 125000, core.PaymentCash, day)},
		CashBalance: core.MoneyFromCents(250000),
	}

	text := RenderDailyText(d)
	assert.Contains(t, text, "Report for 2025-03-10")
	assert.Contains(t, text, "Plywood 12mm x2 @ 1250.00 = 2500.00 (cash)")
	assert.Contains(t, text, "Sales total: 2500.00")
	assert.Contains(t, text, "Expenses:\n  none")
	assert.Contains(t, text, "Cash balance: 2500.00")
}

func TestBuildMonthly(t *testing.T) {
	d10 := core.NewDay(2025, 3, 10)
	d15 := core.NewDay(2025, 3, 15)
	sales := []core.Sale{
		sale("a", 1, 10000, core.PaymentCash, d15),
		sale("b", 1, 20000, core.PaymentCard, d10),
		sale("c", 1, 5000, core.PaymentCash, d10),
	}
	expenses := []core.Expense{
		{Reason: "fuel", Amount: core.MoneyFromCents(3000), Date: d10},
	}

	m := BuildMonthly(2025, time.March, sales, expenses)
	require.Len(t, m.Days, 2)

	// Rows are sorted by day.
	assert.Equal(t, "2025-03-10", m.Days[0].Day.String())
	assert.Equal(t, int64(25000), m.Days[0].SalesTotal.Cents)
	assert.Equal(t, int64(3000), m.Days[0].ExpensesTotal.Cents)
	assert.Equal(t, int64(5000), m.Days[0].ByMethod[core.PaymentCash].Cents)

	assert.Equal(t, "2025-03-15", m.Days[1].Day.String())
	assert.Equal(t, int64(35000), m.SalesTotal().Cents)
	assert.Equal(t, int64(3000), m.ExpensesTotal().Cents)
}

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(2025, time.February)
	assert.Equal(t, "2025-02-01", first.String())
	assert.Equal(t, "2025-02-28", last.String())

	first, last = MonthBounds(2024, time.February)
	assert.Equal(t, "2024-02-29", last.String())
	assert.Equal(t, "2024-02-01", first.String())

	_, last = MonthBounds(2025, time.December)
	assert.Equal(t, "2025-12-31", last.String())
}

func TestRenderMonthlyTextEmpty(t *testing.T) {
	text := RenderMonthlyText(Monthly{Year: 2025, Month: time.March})
	assert.Contains(t, text, "No activity.")
}

func TestDailyPDFWritesAndCleansUp(t *testing.T) {
	day := core.NewDay(2025, 3, 10)
	d := Daily{
		Date:        day,
		Sales:       []core.Sale{sale("Plywood 12mm", 2, 125000, core.PaymentCash, day)},
		Expenses:    []core.Expense{{Reason: "fuel", Amount: core.MoneyFromCents(3000), Date: day}},
		CashBalance: core.MoneyFromCents(250000),
	}

	path, err := DailyPDF(d)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.True(t, strings.HasSuffix(path, ".pdf"))
}

func TestMonthlyPDF(t *testing.T) {
	d10 := core.NewDay(2025, 3, 10)
	sales := []core.Sale{sale("a", 1, 10000, core.PaymentCash, d10)}

	path, err := MonthlyPDF(2025, time.March, sales, nil)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSearchPDFEmpty(t *testing.T) {
	path, err := SearchPDF("plywood", nil)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	_, err = os.Stat(path)
	require.NoError(t, err)
}
