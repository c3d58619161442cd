package api

import (
	"kassa/internal/core"
	"kassa/internal/report"
)

// Money travels as decimal strings on the wire; parsing goes through
// core.ParseMoney so the API and the bot accept the same formats.

type SaleRequest struct {
	Name          string `json:"name"`
	Quantity      int64  `json:"quantity"`
	PricePerUnit  string `json:"price_per_unit"`
	PaymentMethod string `json:"payment_method"`
	SaleDate      string `json:"sale_date"`
	ShipmentDate  string `json:"shipment_date"`
	Comment       string `json:"comment"`
}

// ToSale parses the wire fields into a domain sale. The total is left for
// Normalize; client-sent totals are never trusted.
func (r SaleRequest) ToSale() (core.Sale, error) {
	price, err := core.ParseMoney(r.PricePerUnit)
	if err != nil {
		return core.Sale{}, err
	}
	method, err := core.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return core.Sale{}, err
	}
	saleDate, err := core.ParseDay(r.SaleDate)
	if err != nil {
		return core.Sale{}, err
	}
	shipDate, err := core.ParseDay(r.ShipmentDate)
	if err != nil {
		return core.Sale{}, err
	}
	return core.Sale{
		Name:          r.Name,
		Quantity:      r.Quantity,
		PricePerUnit:  price,
		PaymentMethod: method,
		SaleDate:      saleDate,
		ShipmentDate:  shipDate,
		Comment:       r.Comment,
	}, nil
}

type SaleResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Quantity      int64  `json:"quantity"`
	PricePerUnit  string `json:"price_per_unit"`
	TotalPrice    string `json:"total_price"`
	PaymentMethod string `json:"payment_method"`
	SaleDate      string `json:"sale_date"`
	ShipmentDate  string `json:"shipment_date"`
	Comment       string `json:"comment"`
}

func NewSaleResponse(s core.Sale) SaleResponse {
	return SaleResponse{
		ID:            s.ID,
		Name:          s.Name,
		Quantity:      s.Quantity,
		PricePerUnit:  s.PricePerUnit.String(),
		TotalPrice:    s.TotalPrice.String(),
		PaymentMethod: string(s.PaymentMethod),
		SaleDate:      s.SaleDate.String(),
		ShipmentDate:  s.ShipmentDate.String(),
		Comment:       s.Comment,
	}
}

// ToSale converts a response back into the domain type; the bot uses this
// to feed report rendering.
func (r SaleResponse) ToSale() (core.Sale, error) {
	req := SaleRequest{
		Name:          r.Name,
		Quantity:      r.Quantity,
		PricePerUnit:  r.PricePerUnit,
		PaymentMethod: r.PaymentMethod,
		SaleDate:      r.SaleDate,
		ShipmentDate:  r.ShipmentDate,
		Comment:       r.Comment,
	}
	s, err := req.ToSale()
	if err != nil {
		return core.Sale{}, err
	}
	s.ID = r.ID
	s.Normalize()
	return s, nil
}

func newSaleResponses(sales []core.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, NewSaleResponse(s))
	}
	return out
}

type ExpenseRequest struct {
	Reason  string `json:"reason"`
	Amount  string `json:"amount"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}

func (r ExpenseRequest) ToExpense() (core.Expense, error) {
	amount, err := core.ParseMoney(r.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDay(r.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{Reason: r.Reason, Amount: amount, Comment: r.Comment, Date: date}, nil
}

type ExpenseResponse struct {
	ID      int64  `json:"id"`
	Reason  string `json:"reason"`
	Amount  string `json:"amount"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}

func NewExpenseResponse(e core.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:      e.ID,
		Reason:  e.Reason,
		Amount:  e.Amount.String(),
		Comment: e.Comment,
		Date:    e.Date.String(),
	}
}

func (r ExpenseResponse) ToExpense() (core.Expense, error) {
	req := ExpenseRequest{Reason: r.Reason, Amount: r.Amount, Comment: r.Comment, Date: r.Date}
	e, err := req.ToExpense()
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = r.ID
	return e, nil
}

func newExpenseResponses(expenses []core.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, NewExpenseResponse(e))
	}
	return out
}

type CashTopUpRequest struct {
	Amount string `json:"amount"`
}

type CashBalanceResponse struct {
	Date    string `json:"date"`
	Balance string `json:"balance"`
}

type DailyReportResponse struct {
	Date          string            `json:"date"`
	Sales         []SaleResponse    `json:"sales"`
	Expenses      []ExpenseResponse `json:"expenses"`
	SalesTotal    string            `json:"sales_total"`
	MethodTotals  map[string]string `json:"method_totals"`
	ExpensesTotal string            `json:"expenses_total"`
	CashBalance   string            `json:"cash_balance"`
}

func NewDailyReportResponse(d report.Daily) DailyReportResponse {
	methodTotals := make(map[string]string)
	for method, total := range d.MethodTotals() {
		methodTotals[string(method)] = total.String()
	}
	return DailyReportResponse{
		Date:          d.Date.String(),
		Sales:         newSaleResponses(d.Sales),
		Expenses:      newExpenseResponses(d.Expenses),
		SalesTotal:    d.SalesTotal().String(),
		MethodTotals:  methodTotals,
		ExpensesTotal: d.ExpensesTotal().String(),
		CashBalance:   d.CashBalance.String(),
	}
}

type DayRowResponse struct {
	Date          string            `json:"date"`
	SalesTotal    string            `json:"sales_total"`
	ExpensesTotal string            `json:"expenses_total"`
	MethodTotals  map[string]string `json:"method_totals"`
}

type MonthlyReportResponse struct {
	Year          int              `json:"year"`
	Month         int              `json:"month"`
	Days          []DayRowResponse `json:"days"`
	SalesTotal    string           `json:"sales_total"`
	ExpensesTotal string           `json:"expenses_total"`
}

func NewMonthlyReportResponse(m report.Monthly) MonthlyReportResponse {
	days := make([]DayRowResponse, 0, len(m.Days))
	for _, row := range m.Days {
		methodTotals := make(map[string]string, len(row.ByMethod))
		for method, total := range row.ByMethod {
			methodTotals[string(method)] = total.String()
		}
		days = append(days, DayRowResponse{
			Date:          row.Day.String(),
			SalesTotal:    row.SalesTotal.String(),
			ExpensesTotal: row.ExpensesTotal.String(),
			MethodTotals:  methodTotals,
		})
	}
	return MonthlyReportResponse{
		Year:          m.Year,
		Month:         int(m.Month),
		Days:          days,
		SalesTotal:    m.SalesTotal().String(),
		ExpensesTotal: m.ExpensesTotal().String(),
	}
}
