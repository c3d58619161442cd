// Package botapi is the bot's HTTP client for the ledger API. It speaks
// the same DTOs the server renders and translates HTTP status codes back
// into the domain error taxonomy.
package botapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"resty.dev/v3"

	"kassa/internal/api"
	"kassa/internal/core"
)

type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)
	return &Client{http: c}
}

func (c *Client) Close() error {
	return c.http.Close()
}

type errorBody struct {
	Error string `json:"error"`
}

// asDomainError maps an unsuccessful response onto the error taxonomy so
// flows can errors.Is against validation and not-found like local calls.
func asDomainError(res *resty.Response) error {
	msg := "request failed"
	if body, ok := res.Error().(*errorBody); ok && body.Error != "" {
		msg = body.Error
	}
	switch res.StatusCode() {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", core.ErrValidation, msg)
	case http.StatusNotFound:
		return core.ErrNotFound
	default:
		return fmt.Errorf("api returned %d: %s", res.StatusCode(), msg)
	}
}

func (c *Client) req(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&errorBody{})
}

func (c *Client) CreateSale(ctx context.Context, sale api.SaleRequest) (api.SaleResponse, error) {
	var out api.SaleResponse
	res, err := c.req(ctx).SetBody(sale).SetResult(&out).Post("/api/sales")
	if err != nil {
		return api.SaleResponse{}, fmt.Errorf("create sale: %w", err)
	}
	if !res.IsSuccess() {
		return api.SaleResponse{}, asDomainError(res)
	}
	return out, nil
}

func (c *Client) UpdateSale(ctx context.Context, id int64, sale api.SaleRequest) (api.SaleResponse, error) {
	var out api.SaleResponse
	res, err := c.req(ctx).SetBody(sale).SetResult(&out).Put("/api/sales/" + strconv.FormatInt(id, 10))
	if err != nil {
		return api.SaleResponse{}, fmt.Errorf("update sale: %w", err)
	}
	if !res.IsSuccess() {
		return api.SaleResponse{}, asDomainError(res)
	}
	return out, nil
}

func (c *Client) DeleteSale(ctx context.Context, id int64) error {
	res, err := c.req(ctx).Delete("/api/sales/" + strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if !res.IsSuccess() {
		return asDomainError(res)
	}
	return nil
}

func (c *Client) GetSale(ctx context.Context, id int64) (api.SaleResponse, error) {
	var out api.SaleResponse
	res, err := c.req(ctx).SetResult(&out).Get("/api/sales/" + strconv.FormatInt(id, 10))
	if err != nil {
		return api.SaleResponse{}, fmt.Errorf("get sale: %w", err)
	}
	if !res.IsSuccess() {
		return api.SaleResponse{}, asDomainError(res)
	}
	return out, nil
}

// SalesQuery narrows a sales listing. Zero values mean "no filter".
type SalesQuery struct {
	Date    string
	From    string
	To      string
	Keyword string
}

func (c *Client) ListSales(ctx context.Context, q SalesQuery) ([]api.SaleResponse, error) {
	params := map[string]string{}
	if q.Date != "" {
		params["date"] = q.Date
	}
	if q.From != "" && q.To != "" {
		params["from"], params["to"] = q.From, q.To
	}
	if q.Keyword != "" {
		params["q"] = q.Keyword
	}

	var out []api.SaleResponse
	res, err := c.req(ctx).SetQueryParams(params).SetResult(&out).Get("/api/sales")
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if !res.IsSuccess() {
		return nil, asDomainError(res)
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, expense api.ExpenseRequest) (api.ExpenseResponse, error) {
	var out api.ExpenseResponse
	res, err := c.req(ctx).SetBody(expense).SetResult(&out).Post("/api/expenses")
	if err != nil {
		return api.ExpenseResponse{}, fmt.Errorf("create expense: %w", err)
	}
	if !res.IsSuccess() {
		return api.ExpenseResponse{}, asDomainError(res)
	}
	return out, nil
}

func (c *Client) UpdateExpense(ctx context.Context, id int64, expense api.ExpenseRequest) (api.ExpenseResponse, error) {
	var out api.ExpenseResponse
	res, err := c.req(ctx).SetBody(expense).SetResult(&out).Put("/api/expenses/" + strconv.FormatInt(id, 10))
	if err != nil {
		return api.ExpenseResponse{}, fmt.Errorf("update expense: %w", err)
	}
	if !res.IsSuccess() {
		return api.ExpenseResponse{}, asDomainError(res)
	}
	return out, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	res, err := c.req(ctx).Delete("/api/expenses/" + strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if !res.IsSuccess() {
		return asDomainError(res)
	}
	return nil
}

func (c *Client) GetExpense(ctx context.Context, id int64) (api.ExpenseResponse, error) {
	var out api.ExpenseResponse
	res, err := c.req(ctx).SetResult(&out).Get("/api/expenses/" + strconv.FormatInt(id, 10))
	if err != nil {
		return api.ExpenseResponse{}, fmt.Errorf("get expense: %w", err)
	}
	if !res.IsSuccess() {
		return api.ExpenseResponse{}, asDomainError(res)
	}
	return out, nil
}

func (c *Client) ListExpensesBetween(ctx context.Context, from, to string) ([]api.ExpenseResponse, error) {
	var out []api.ExpenseResponse
	res, err := c.req(ctx).
		SetQueryParam("from", from).
		SetQueryParam("to", to).
		SetResult(&out).
		Get("/api/expenses")
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if !res.IsSuccess() {
		return nil, asDomainError(res)
	}
	return out, nil
}

func (c *Client) ListExpenses(ctx context.Context, date string) ([]api.ExpenseResponse, error) {
	req := c.req(ctx)
	if date != "" {
		req.SetQueryParam("date", date)
	}
	var out []api.ExpenseResponse
	res, err := req.SetResult(&out).Get("/api/expenses")
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if !res.IsSuccess() {
		return nil, asDomainError(res)
	}
	return out, nil
}

func (c *Client) TopUpCash(ctx context.Context, amount string) (api.CashBalanceResponse, error) {
	var out api.CashBalanceResponse
	res, err := c.req(ctx).SetBody(api.CashTopUpRequest{Amount: amount}).SetResult(&out).Post("/api/cash")
	if err != nil {
		return api.CashBalanceResponse{}, fmt.Errorf("top up cash: %w", err)
	}
	if !res.IsSuccess() {
		return api.CashBalanceResponse{}, asDomainError(res)
	}
	return out, nil
}

func (c *Client) CashBalance(ctx context.Context, date string) (api.CashBalanceResponse, error) {
	req := c.req(ctx)
	if date != "" {
		req.SetQueryParam("date", date)
	}
	var out api.CashBalanceResponse
	res, err := req.SetResult(&out).Get("/api/cash")
	if err != nil {
		return api.CashBalanceResponse{}, fmt.Errorf("cash balance: %w", err)
	}
	if !res.IsSuccess() {
		return api.CashBalanceResponse{}, asDomainError(res)
	}
	return out, nil
}

func (c *Client) DailyReport(ctx context.Context, date string) (api.DailyReportResponse, error) {
	req := c.req(ctx)
	if date != "" {
		req.SetQueryParam("date", date)
	}
	var out api.DailyReportResponse
	res, err := req.SetResult(&out).Get("/api/report")
	if err != nil {
		return api.DailyReportResponse{}, fmt.Errorf("daily report: %w", err)
	}
	if !res.IsSuccess() {
		return api.DailyReportResponse{}, asDomainError(res)
	}
	return out, nil
}

func (c *Client) MonthlyReport(ctx context.Context, month, year int) (api.MonthlyReportResponse, error) {
	var out api.MonthlyReportResponse
	res, err := c.req(ctx).
		SetQueryParam("month", strconv.Itoa(month)).
		SetQueryParam("year", strconv.Itoa(year)).
		SetResult(&out).
		Get("/api/report/monthly")
	if err != nil {
		return api.MonthlyReportResponse{}, fmt.Errorf("monthly report: %w", err)
	}
	if !res.IsSuccess() {
		return api.MonthlyReportResponse{}, asDomainError(res)
	}
	return out, nil
}
