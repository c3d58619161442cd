// Package bot is the conversational front-end: commands start linear form
// flows, every answer fills one field, and the terminal step commits a
// single API call. State lives in an explicit per-chat session.
package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"kassa/internal/api"
	"kassa/internal/botapi"
)

// LedgerAPI is what the flows need from the API service. botapi.Client
// implements it; tests supply a fake.
type LedgerAPI interface {
	CreateSale(ctx context.Context, sale api.SaleRequest) (api.SaleResponse, error)
	UpdateSale(ctx context.Context, id int64, sale api.SaleRequest) (api.SaleResponse, error)
	DeleteSale(ctx context.Context, id int64) error
	GetSale(ctx context.Context, id int64) (api.SaleResponse, error)
	ListSales(ctx context.Context, q botapi.SalesQuery) ([]api.SaleResponse, error)
	CreateExpense(ctx context.Context, expense api.ExpenseRequest) (api.ExpenseResponse, error)
	UpdateExpense(ctx context.Context, id int64, expense api.ExpenseRequest) (api.ExpenseResponse, error)
	DeleteExpense(ctx context.Context, id int64) error
	GetExpense(ctx context.Context, id int64) (api.ExpenseResponse, error)
	ListExpenses(ctx context.Context, date string) ([]api.ExpenseResponse, error)
	ListExpensesBetween(ctx context.Context, from, to string) ([]api.ExpenseResponse, error)
	TopUpCash(ctx context.Context, amount string) (api.CashBalanceResponse, error)
	CashBalance(ctx context.Context, date string) (api.CashBalanceResponse, error)
	DailyReport(ctx context.Context, date string) (api.DailyReportResponse, error)
	MonthlyReport(ctx context.Context, month, year int) (api.MonthlyReportResponse, error)
}

// Button is one inline keyboard button; Data is the opaque callback token.
type Button struct {
	Label string
	Data  string
}

// Sender abstracts the message transport so flows run in tests without
// Telegram.
type Sender interface {
	SendMessage(chatID int64, text string) error
	SendKeyboard(chatID int64, text string, rows [][]Button) error
	SendDocument(chatID int64, path, caption string) error
}

type Bot struct {
	api      LedgerAPI
	send     Sender
	sessions *sessions
	now      func() time.Time
}

func New(ledger LedgerAPI, send Sender) *Bot {
	return &Bot{api: ledger, send: send, sessions: newSessions(), now: time.Now}
}

// NewWithClock fixes "today" for tests.
func NewWithClock(ledger LedgerAPI, send Sender, now func() time.Time) *Bot {
	return &Bot{api: ledger, send: send, sessions: newSessions(), now: now}
}

// HandleMessage routes one incoming text message: commands dispatch, and
// anything else feeds the active session.
func (b *Bot) HandleMessage(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, chatID, text)
		return
	}

	sess, ok := b.sessions.get(chatID)
	if !ok {
		b.reply(chatID, "Send /start to see what I can do.")
		return
	}
	b.handleFlowInput(ctx, chatID, sess, text)
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, text string) {
	command := text
	if i := strings.IndexByte(command, ' '); i > 0 {
		command = command[:i]
	}

	switch command {
	case "/start":
		b.sessions.clear(chatID)
		b.reply(chatID, helpText)
	case "/sale":
		b.sessions.start(chatID, flowSale, stepSaleName)
		b.reply(chatID, "What was sold?")
	case "/expense":
		sess := b.sessions.start(chatID, flowExpense, stepExpenseReason)
		sess.expense.Date = b.today()
		b.reply(chatID, "What was the expense for?")
	case "/cash":
		b.sessions.start(chatID, flowCash, stepCashAmount)
		b.reply(chatID, "How much cash was added?")
	case "/report":
		b.sendDailyReport(ctx, chatID)
	case "/report_pdf":
		b.sendDailyReportPDF(ctx, chatID)
	case "/all_sales":
		b.sendAllSales(ctx, chatID)
	case "/expenses":
		b.sendExpenses(ctx, chatID)
	case "/monthly":
		b.sendMonthKeyboard(chatID)
	case "/search":
		b.sessions.start(chatID, flowSearch, stepSearchQuery)
		b.reply(chatID, "What should I search for?")
	default:
		b.reply(chatID, "Unknown command. Send /start for the list.")
	}
}

// HandleCallback routes one button press by token prefix.
func (b *Bot) HandleCallback(ctx context.Context, chatID int64, data string) {
	switch {
	case strings.HasPrefix(data, "sale:"):
		b.showSale(ctx, chatID, idFrom(data, "sale:"))
	case strings.HasPrefix(data, "del_sale:"):
		b.deleteSale(ctx, chatID, idFrom(data, "del_sale:"))
	case strings.HasPrefix(data, "edit_sale:"):
		b.startSaleEdit(ctx, chatID, idFrom(data, "edit_sale:"))
	case strings.HasPrefix(data, "expense:"):
		b.showExpense(ctx, chatID, idFrom(data, "expense:"))
	case strings.HasPrefix(data, "del_expense:"):
		b.deleteExpense(ctx, chatID, idFrom(data, "del_expense:"))
	case strings.HasPrefix(data, "edit_expense:"):
		b.startExpenseEdit(ctx, chatID, idFrom(data, "edit_expense:"))
	case strings.HasPrefix(data, "month:"):
		b.sendMonthlyReport(ctx, chatID, data)
	case data == "all_time":
		b.runSearch(ctx, chatID, "", "")
	case data == "period":
		b.askSearchRange(chatID)
	default:
		slog.Warn("Unknown callback token", "data", data)
	}
}

func idFrom(data, prefix string) int64 {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (b *Bot) today() string {
	return b.now().UTC().Format("2006-01-02")
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.send.SendMessage(chatID, text); err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) replyKeyboard(chatID int64, text string, rows [][]Button) {
	if err := b.send.SendKeyboard(chatID, text, rows); err != nil {
		slog.Error("Failed to send keyboard", "error", err, "chat_id", chatID)
	}
}

const helpText = `Bookkeeping commands:
/sale - record a sale
/expense - record an expense
/cash - add cash to the register
/report - today's report
/report_pdf - today's report as PDF
/all_sales - list all sales
/expenses - today's expenses
/monthly - monthly report
/search - find sales by keyword`
