package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kassa/internal/core"
	"kassa/internal/report"
)

func (s *Server) createSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sale, err := req.ToSale()
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := s.ledger.CreateSale(c.Request.Context(), sale)
	if err != nil {
		respondError(c, err)
		return
	}

	s.reports.Purge()
	c.JSON(http.StatusCreated, NewSaleResponse(created))
}

func (s *Server) listSales(c *gin.Context) {
	sales, err := s.querySales(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if q := c.Query("q"); q != "" {
		sales = report.FilterSales(sales, q)
	}

	c.JSON(http.StatusOK, newSaleResponses(sales))
}

// querySales picks the narrowest listing the query parameters allow:
// exact day, range, or the full ledger (needed for unbounded search).
func (s *Server) querySales(c *gin.Context) ([]core.Sale, error) {
	ctx := c.Request.Context()

	if dateStr := c.Query("date"); dateStr != "" {
		day, err := core.ParseDay(dateStr)
		if err != nil {
			return nil, err
		}
		return s.ledger.ListSalesByDay(ctx, day)
	}

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr != "" && toStr != "" {
		from, err := core.ParseDay(fromStr)
		if err != nil {
			return nil, err
		}
		to, err := core.ParseDay(toStr)
		if err != nil {
			return nil, err
		}
		return s.ledger.ListSalesBetween(ctx, from, to)
	}

	return s.ledger.ListAllSales(ctx)
}

func (s *Server) getSale(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	sale, err := s.ledger.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSaleResponse(sale))
}

func (s *Server) updateSale(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sale, err := req.ToSale()
	if err != nil {
		respondError(c, err)
		return
	}
	sale.ID = id

	updated, err := s.ledger.UpdateSale(c.Request.Context(), sale)
	if err != nil {
		respondError(c, err)
		return
	}

	s.reports.Purge()
	c.JSON(http.StatusOK, NewSaleResponse(updated))
}

func (s *Server) deleteSale(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.ledger.DeleteSale(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	s.reports.Purge()
	c.Status(http.StatusNoContent)
}

func (s *Server) createExpense(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	expense, err := req.ToExpense()
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := s.ledger.CreateExpense(c.Request.Context(), expense)
	if err != nil {
		respondError(c, err)
		return
	}

	s.reports.Purge()
	c.JSON(http.StatusCreated, NewExpenseResponse(created))
}

func (s *Server) listExpenses(c *gin.Context) {
	ctx := c.Request.Context()

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr != "" && toStr != "" {
		from, err := core.ParseDay(fromStr)
		if err != nil {
			respondError(c, err)
			return
		}
		to, err := core.ParseDay(toStr)
		if err != nil {
			respondError(c, err)
			return
		}
		expenses, err := s.ledger.ListExpensesBetween(ctx, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newExpenseResponses(expenses))
		return
	}

	day := core.DayOf(time.Now())
	if dateStr := c.Query("date"); dateStr != "" {
		var err error
		day, err = core.ParseDay(dateStr)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	expenses, err := s.ledger.ListExpensesByDay(ctx, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newExpenseResponses(expenses))
}

func (s *Server) getExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	expense, err := s.ledger.GetExpense(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewExpenseResponse(expense))
}

func (s *Server) updateExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	expense, err := req.ToExpense()
	if err != nil {
		respondError(c, err)
		return
	}
	expense.ID = id

	updated, err := s.ledger.UpdateExpense(c.Request.Context(), expense)
	if err != nil {
		respondError(c, err)
		return
	}

	s.reports.Purge()
	c.JSON(http.StatusOK, NewExpenseResponse(updated))
}

func (s *Server) deleteExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.ledger.DeleteExpense(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	s.reports.Purge()
	c.Status(http.StatusNoContent)
}

func (s *Server) topUpCash(c *gin.Context) {
	var req CashTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	balance, err := s.ledger.TopUpCash(c.Request.Context(), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	s.reports.Purge()
	c.JSON(http.StatusOK, CashBalanceResponse{
		Date:    core.DayOf(time.Now()).String(),
		Balance: balance.String(),
	})
}

func (s *Server) cashBalance(c *gin.Context) {
	day := core.DayOf(time.Now())
	if dateStr := c.Query("date"); dateStr != "" {
		var err error
		day, err = core.ParseDay(dateStr)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	balance, err := s.ledger.CashBalance(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CashBalanceResponse{Date: day.String(), Balance: balance.String()})
}

func (s *Server) dailyReport(c *gin.Context) {
	day := core.DayOf(time.Now())
	if dateStr := c.Query("date"); dateStr != "" {
		var err error
		day, err = core.ParseDay(dateStr)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	cacheKey := "daily:" + day.String()
	if cached, ok := s.reports.Get(cacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	ctx := c.Request.Context()
	sales, err := s.ledger.ListSalesByDay(ctx, day)
	if err != nil {
		respondError(c, err)
		return
	}
	expenses, err := s.ledger.ListExpensesByDay(ctx, day)
	if err != nil {
		respondError(c, err)
		return
	}
	balance, err := s.ledger.CashBalance(ctx, day)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := NewDailyReportResponse(report.Daily{
		Date:        day,
		Sales:       sales,
		Expenses:    expenses,
		CashBalance: balance,
	})
	s.reports.Set(cacheKey, resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) monthlyReport(c *gin.Context) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be between 1 and 12"})
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}

	cacheKey := "monthly:" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
	if cached, ok := s.reports.Get(cacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	ctx := c.Request.Context()
	first, last := report.MonthBounds(year, time.Month(month))
	sales, err := s.ledger.ListSalesBetween(ctx, first, last)
	if err != nil {
		respondError(c, err)
		return
	}
	expenses, err := s.ledger.ListExpensesBetween(ctx, first, last)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := NewMonthlyReportResponse(report.BuildMonthly(year, time.Month(month), sales, expenses))
	s.reports.Set(cacheKey, resp)
	c.JSON(http.StatusOK, resp)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// respondError maps the error taxonomy onto HTTP: validation errors are
// the client's fault, unknown IDs are 404, everything else is hidden
// behind a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		slog.ErrorContext(c.Request.Context(), "Request failed",
			"error", err,
			"path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
