package report

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"

	"kassa/internal/core"
)

// saleColWidths lays out the sale table: name, qty, unit price, total, method.
var saleColWidths = []float64{80, 15, 30, 30, 25}

// DailyPDF writes the one-day report to a temp file and returns its path.
// The caller sends the file and removes it; nothing is retained.
func DailyPDF(d Daily) (string, error) {
	pdf := newPDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	writeTitle(pdf, tr, fmt.Sprintf("Report for %s", d.Date))

	writeHeading(pdf, tr, "Sales")
	writeSaleTable(pdf, tr, d.Sales)
	writeTotalLine(pdf, tr, "Sales total", d.SalesTotal())
	byMethod := d.MethodTotals()
	for _, m := range methodOrder {
		writeTotalLine(pdf, tr, "  "+string(m), byMethod[m])
	}

	pdf.Ln(4)
	writeHeading(pdf, tr, "Expenses")
	writeExpenseTable(pdf, tr, d.Expenses)
	writeTotalLine(pdf, tr, "Expenses total", d.ExpensesTotal())

	pdf.Ln(4)
	writeTotalLine(pdf, tr, "Cash balance", d.CashBalance)

	return saveTemp(pdf, "kassa-daily-*.pdf")
}

// MonthlyPDF writes the month report: sales grouped per day with day
// subtotals, then month totals.
func MonthlyPDF(year int, month time.Month, sales []core.Sale, expenses []core.Expense) (string, error) {
	pdf := newPDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	writeTitle(pdf, tr, fmt.Sprintf("Report for %s %d", month, year))

	for _, group := range groupSalesByDay(sales) {
		writeHeading(pdf, tr, group.key)
		writeSaleTable(pdf, tr, group.sales)
		writeTotalLine(pdf, tr, "Day total", salesTotal(group.sales))
		pdf.Ln(2)
	}

	m := BuildMonthly(year, month, sales, expenses)
	pdf.Ln(4)
	writeTotalLine(pdf, tr, "Sales total", m.SalesTotal())
	writeTotalLine(pdf, tr, "Expenses total", m.ExpensesTotal())

	return saveTemp(pdf, "kassa-monthly-*.pdf")
}

// SearchPDF writes the matching sales grouped by month.
func SearchPDF(query string, sales []core.Sale) (string, error) {
	pdf := newPDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	writeTitle(pdf, tr, fmt.Sprintf("Sales matching %q", query))

	if len(sales) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 8, tr("No matches."))
		pdf.Ln(8)
	}

	for _, group := range groupSalesByMonth(sales) {
		writeHeading(pdf, tr, group.key)
		writeSaleTable(pdf, tr, group.sales)
		writeTotalLine(pdf, tr, "Month total", salesTotal(group.sales))
		pdf.Ln(2)
	}

	pdf.Ln(4)
	writeTotalLine(pdf, tr, "Total", salesTotal(sales))

	return saveTemp(pdf, "kassa-search-*.pdf")
}

func newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return pdf
}

func writeTitle(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)
}

func writeHeading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, tr(text))
	pdf.Ln(8)
}

func writeSaleTable(pdf *fpdf.Fpdf, tr func(string) string, sales []core.Sale) {
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"Name", "Qty", "Price", "Total", "Method"} {
		pdf.CellFormat(saleColWidths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, s := range sales {
		cells := []string{
			s.Name,
			fmt.Sprintf("%d", s.Quantity),
			s.PricePerUnit.String(),
			s.TotalPrice.String(),
			string(s.PaymentMethod),
		}
		for i, c := range cells {
			pdf.CellFormat(saleColWidths[i], 6, tr(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeExpenseTable(pdf *fpdf.Fpdf, tr func(string) string, expenses []core.Expense) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(120, 7, "Reason", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 0, "L", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, e := range expenses {
		pdf.CellFormat(120, 6, tr(e.Reason), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, e.Amount.String(), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
}

func writeTotalLine(pdf *fpdf.Fpdf, tr func(string) string, label string, amount core.Money) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 7, tr(fmt.Sprintf("%s: %s", label, amount)))
	pdf.Ln(7)
}

func saveTemp(pdf *fpdf.Fpdf, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	f.Close()

	if err := pdf.OutputFileAndClose(path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}

type saleGroup struct {
	key   string
	sales []core.Sale
}

func groupSalesByDay(sales []core.Sale) []saleGroup {
	return groupSales(sales, func(s core.Sale) string { return s.SaleDate.String() })
}

func groupSalesByMonth(sales []core.Sale) []saleGroup {
	return groupSales(sales, func(s core.Sale) string { return s.SaleDate.Format("2006-01") })
}

func groupSales(sales []core.Sale, keyOf func(core.Sale) string) []saleGroup {
	byKey := map[string][]core.Sale{}
	for _, s := range sales {
		key := keyOf(s)
		byKey[key] = append(byKey[key], s)
	}
	groups := make([]saleGroup, 0, len(byKey))
	for key, group := range byKey {
		groups = append(groups, saleGroup{key: key, sales: group})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	return groups
}

func salesTotal(sales []core.Sale) core.Money {
	var total core.Money
	for _, s := range sales {
		total = total.Add(s.TotalPrice)
	}
	return total
}
