// Package api is the HTTP surface of the ledger: JSON CRUD for sales and
// expenses, cash register operations, and the daily/monthly report
// aggregates consumed by the bot.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"kassa/internal/cache"
	"kassa/internal/services"
)

type Server struct {
	ledger  *services.Ledger
	reports *cache.LRU[any]
	limiter *Limiter
}

type Options struct {
	RateLimitPerMinute int
	ReportCacheSize    int
	ReportCacheTTL     time.Duration
}

func DefaultOptions() Options {
	return Options{
		RateLimitPerMinute: 60,
		ReportCacheSize:    64,
		ReportCacheTTL:     5 * time.Minute,
	}
}

func NewServer(ledger *services.Ledger, opts Options) *Server {
	if opts.ReportCacheSize <= 0 {
		opts = DefaultOptions()
	}
	return &Server{
		ledger:  ledger,
		reports: cache.NewLRU[any](opts.ReportCacheSize, opts.ReportCacheTTL),
		limiter: NewLimiter(opts.RateLimitPerMinute),
	}
}

// Close stops the limiter's cleanup goroutine.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), RateLimit(s.limiter))

	router.GET("/healthz", s.health)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/sales", s.createSale)
		apiGroup.GET("/sales", s.listSales)
		apiGroup.GET("/sales/:id", s.getSale)
		apiGroup.PUT("/sales/:id", s.updateSale)
		apiGroup.DELETE("/sales/:id", s.deleteSale)

		apiGroup.POST("/expenses", s.createExpense)
		apiGroup.GET("/expenses", s.listExpenses)
		apiGroup.GET("/expenses/:id", s.getExpense)
		apiGroup.PUT("/expenses/:id", s.updateExpense)
		apiGroup.DELETE("/expenses/:id", s.deleteExpense)

		apiGroup.POST("/cash", s.topUpCash)
		apiGroup.GET("/cash", s.cashBalance)

		apiGroup.GET("/report", s.dailyReport)
		apiGroup.GET("/report/monthly", s.monthlyReport)
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
