package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kassa/internal/services"
	"kassa/internal/storage"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := storage.Open(filepath.Join(t.TempDir(), "kassa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(services.NewLedger(repo, nil), DefaultOptions())
	t.Cleanup(srv.Close)
	return srv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func saleBody(name, method string) SaleRequest {
	today := time.Now().UTC().Format("2006-01-02")
	return SaleRequest{
		Name:          name,
		Quantity:      2,
		PricePerUnit:  "1250.00",
		PaymentMethod: method,
		SaleDate:      today,
		ShipmentDate:  today,
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetSale(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", saleBody("Plywood 12mm", "cash"))
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[SaleResponse](t, rec)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "2500.00", created.TotalPrice)

	rec = doJSON(t, router, http.MethodGet, "/api/sales/"+strconv.FormatInt(created.ID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[SaleResponse](t, rec)
	assert.Equal(t, "Plywood 12mm", got.Name)
}

func TestCreateSaleValidation(t *testing.T) {
	router := newTestRouter(t)

	body := saleBody("Plywood", "cash")
	body.PaymentMethod = "bitcoin"
	rec := doJSON(t, router, http.MethodPost, "/api/sales", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = saleBody("Plywood", "cash")
	body.Quantity = 0
	rec = doJSON(t, router, http.MethodPost, "/api/sales", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = saleBody("Plywood", "cash")
	body.PricePerUnit = "-5"
	rec = doJSON(t, router, http.MethodPost, "/api/sales", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSaleNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/sales/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/sales/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSaleReversesCashBalance(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", saleBody("Plywood", "cash"))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[SaleResponse](t, rec)

	rec = doJSON(t, router, http.MethodGet, "/api/cash", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2500.00", decode[CashBalanceResponse](t, rec).Balance)

	rec = doJSON(t, router, http.MethodDelete, "/api/sales/"+strconv.FormatInt(created.ID, 10), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/cash", nil)
	assert.Equal(t, "0.00", decode[CashBalanceResponse](t, rec).Balance)
}

func TestKeywordSearch(t *testing.T) {
	router := newTestRouter(t)

	for _, name := range []string{"Фанера 12мм F/W", "Фанера 9мм", "OSB 12мм f/w"} {
		rec := doJSON(t, router, http.MethodPost, "/api/sales", saleBody(name, "card"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/sales?q=12%D0%BC%D0%BC+F%2FW", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]SaleResponse](t, rec)
	require.Len(t, got, 2)
}

func TestTopUpCash(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/cash", CashTopUpRequest{Amount: "150,50"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "150.50", decode[CashBalanceResponse](t, rec).Balance)

	rec = doJSON(t, router, http.MethodPost, "/api/cash", CashTopUpRequest{Amount: "0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseLifecycleAndReport(t *testing.T) {
	router := newTestRouter(t)
	today := time.Now().UTC().Format("2006-01-02")

	rec := doJSON(t, router, http.MethodPost, "/api/cash", CashTopUpRequest{Amount: "100"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/expenses", ExpenseRequest{
		Reason: "fuel", Amount: "30", Date: today,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/report?date="+today, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	daily := decode[DailyReportResponse](t, rec)
	assert.Equal(t, "30.00", daily.ExpensesTotal)
	assert.Equal(t, "70.00", daily.CashBalance)
	require.Len(t, daily.Expenses, 1)
}

func TestReportCacheInvalidatedOnMutation(t *testing.T) {
	router := newTestRouter(t)
	today := time.Now().UTC().Format("2006-01-02")

	rec := doJSON(t, router, http.MethodGet, "/api/report?date="+today, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.00", decode[DailyReportResponse](t, rec).SalesTotal)

	rec = doJSON(t, router, http.MethodPost, "/api/sales", saleBody("Plywood", "cash"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// The cached empty report must not survive the mutation.
	rec = doJSON(t, router, http.MethodGet, "/api/report?date="+today, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2500.00", decode[DailyReportResponse](t, rec).SalesTotal)
}

func TestMonthlyReport(t *testing.T) {
	router := newTestRouter(t)

	body := saleBody("Plywood", "card")
	body.SaleDate = "2025-03-10"
	body.ShipmentDate = "2025-03-11"
	rec := doJSON(t, router, http.MethodPost, "/api/sales", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/report/monthly?month=3&year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	monthly := decode[MonthlyReportResponse](t, rec)
	assert.Equal(t, "2500.00", monthly.SalesTotal)
	require.Len(t, monthly.Days, 1)
	assert.Equal(t, "2025-03-10", monthly.Days[0].Date)

	rec = doJSON(t, router, http.MethodGet, "/api/report/monthly?month=13&year=2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitOnMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo, err := storage.Open(filepath.Join(t.TempDir(), "kassa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(services.NewLedger(repo, nil), Options{
		RateLimitPerMinute: 2,
		ReportCacheSize:    8,
		ReportCacheTTL:     time.Minute,
	})
	t.Cleanup(srv.Close)
	router := srv.Router()

	var last int
	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/cash", CashTopUpRequest{Amount: "1"})
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// Reads stay open.
	rec := doJSON(t, router, http.MethodGet, "/api/cash", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
