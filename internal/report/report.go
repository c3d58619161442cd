// Package report renders ledger data into daily and monthly summaries,
// as plain text and as PDF files. It is read-only: everything it shows
// comes in as already-loaded sales and expenses.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"kassa/internal/core"
)

// methodOrder fixes the display order of the per-method split.
var methodOrder = []core.PaymentMethod{core.PaymentInvoice, core.PaymentCard, core.PaymentCash}

// Daily is one day's aggregate view of the ledger.
type Daily struct {
	Date        core.Day
	Sales       []core.Sale
	Expenses    []core.Expense
	CashBalance core.Money
}

func (d Daily) SalesTotal() core.Money {
	var total core.Money
	for _, s := range d.Sales {
		total = total.Add(s.TotalPrice)
	}
	return total
}

func (d Daily) ExpensesTotal() core.Money {
	var total core.Money
	for _, e := range d.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// MethodTotals splits the day's sales by payment method. Every method is
// present, zero included, so callers render a stable shape.
func (d Daily) MethodTotals() map[core.PaymentMethod]core.Money {
	totals := make(map[core.PaymentMethod]core.Money, len(methodOrder))
	for _, m := range methodOrder {
		totals[m] = core.Money{}
	}
	for _, s := range d.Sales {
		totals[s.PaymentMethod] = totals[s.PaymentMethod].Add(s.TotalPrice)
	}
	return totals
}

// RenderDailyText renders the summary sent as a chat message.
func RenderDailyText(d Daily) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s\n", d.Date)

	b.WriteString("\nSales:\n")
	if len(d.Sales) == 0 {
		b.WriteString("  none\n")
	}
	for _, s := range d.Sales {
		fmt.Fprintf(&b, "  %s x%d @ %s = %s (%s)\n",
			s.Name, s.Quantity, s.PricePerUnit, s.TotalPrice, s.PaymentMethod)
	}
	fmt.Fprintf(&b, "Sales total: %s\n", d.SalesTotal())

	byMethod := d.MethodTotals()
	for _, m := range methodOrder {
		fmt.Fprintf(&b, "  %s: %s\n", m, byMethod[m])
	}

	b.WriteString("\nExpenses:\n")
	if len(d.Expenses) == 0 {
		b.WriteString("  none\n")
	}
	for _, e := range d.Expenses {
		fmt.Fprintf(&b, "  %s: %s\n", e.Reason, e.Amount)
	}
	fmt.Fprintf(&b, "Expenses total: %s\n", d.ExpensesTotal())

	fmt.Fprintf(&b, "\nCash balance: %s\n", d.CashBalance)
	return b.String()
}

// DayRow is one line of a monthly report.
type DayRow struct {
	Day           core.Day
	SalesTotal    core.Money
	ExpensesTotal core.Money
	ByMethod      map[core.PaymentMethod]core.Money
}

// Monthly groups a month's ledger into per-day rows plus month totals.
type Monthly struct {
	Year  int
	Month time.Month
	Days  []DayRow
}

// BuildMonthly folds sales and expenses into per-day rows sorted by day.
// Days with no activity are omitted.
func BuildMonthly(year int, month time.Month, sales []core.Sale, expenses []core.Expense) Monthly {
	rows := map[string]*DayRow{}
	rowFor := func(day core.Day) *DayRow {
		key := day.String()
		if r, ok := rows[key]; ok {
			return r
		}
		r := &DayRow{Day: day, ByMethod: map[core.PaymentMethod]core.Money{}}
		rows[key] = r
		return r
	}

	for _, s := range sales {
		r := rowFor(s.SaleDate)
		r.SalesTotal = r.SalesTotal.Add(s.TotalPrice)
		r.ByMethod[s.PaymentMethod] = r.ByMethod[s.PaymentMethod].Add(s.TotalPrice)
	}
	for _, e := range expenses {
		r := rowFor(e.Date)
		r.ExpensesTotal = r.ExpensesTotal.Add(e.Amount)
	}

	m := Monthly{Year: year, Month: month, Days: make([]DayRow, 0, len(rows))}
	for _, r := range rows {
		m.Days = append(m.Days, *r)
	}
	sort.Slice(m.Days, func(i, j int) bool { return m.Days[i].Day.Before(m.Days[j].Day) })
	return m
}

func (m Monthly) SalesTotal() core.Money {
	var total core.Money
	for _, r := range m.Days {
		total = total.Add(r.SalesTotal)
	}
	return total
}

func (m Monthly) ExpensesTotal() core.Money {
	var total core.Money
	for _, r := range m.Days {
		total = total.Add(r.ExpensesTotal)
	}
	return total
}

// MonthBounds returns the first and last day of a month, for range queries.
func MonthBounds(year int, month time.Month) (core.Day, core.Day) {
	first := core.NewDay(year, int(month), 1)
	last := core.DayOf(first.AddDate(0, 1, -1))
	return first, last
}

// RenderMonthlyText renders per-day rows and month totals as a chat message.
func RenderMonthlyText(m Monthly) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s %d\n\n", m.Month, m.Year)

	if len(m.Days) == 0 {
		b.WriteString("No activity.\n")
		return b.String()
	}
	for _, r := range m.Days {
		fmt.Fprintf(&b, "%s  sales %s  expenses %s\n", r.Day, r.SalesTotal, r.ExpensesTotal)
	}
	fmt.Fprintf(&b, "\nSales total: %s\nExpenses total: %s\n", m.SalesTotal(), m.ExpensesTotal())
	return b.String()
}
