package bot

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kassa/internal/api"
	"kassa/internal/botapi"
	"kassa/internal/core"
	"kassa/internal/report"
)

func (b *Bot) sendDailyReport(ctx context.Context, chatID int64) {
	daily, err := b.fetchDaily(ctx)
	if err != nil {
		b.replyCommitError(chatID, err, "The report is unavailable.")
		return
	}
	b.reply(chatID, report.RenderDailyText(daily))
}

func (b *Bot) sendDailyReportPDF(ctx context.Context, chatID int64) {
	daily, err := b.fetchDaily(ctx)
	if err != nil {
		b.replyCommitError(chatID, err, "The report is unavailable.")
		return
	}

	path, err := report.DailyPDF(daily)
	if err != nil {
		b.replyCommitError(chatID, err, "The report is unavailable.")
		return
	}
	defer os.Remove(path)

	if err := b.send.SendDocument(chatID, path, "Report for "+daily.Date.String()); err != nil {
		b.reply(chatID, "Something went wrong. The report is unavailable.")
	}
}

func (b *Bot) fetchDaily(ctx context.Context) (report.Daily, error) {
	resp, err := b.api.DailyReport(ctx, b.today())
	if err != nil {
		return report.Daily{}, err
	}
	return dailyFromResponse(resp)
}

func (b *Bot) sendAllSales(ctx context.Context, chatID int64) {
	sales, err := b.api.ListSales(ctx, botapi.SalesQuery{})
	if err != nil {
		b.replyCommitError(chatID, err, "The sales list is unavailable.")
		return
	}
	if len(sales) == 0 {
		b.reply(chatID, "No sales recorded yet.")
		return
	}

	rows := make([][]Button, 0, len(sales))
	for _, s := range sales {
		rows = append(rows, []Button{{
			Label: fmt.Sprintf("%s  %s  %s", s.SaleDate, s.Name, s.TotalPrice),
			Data:  "sale:" + strconv.FormatInt(s.ID, 10),
		}})
	}
	b.replyKeyboard(chatID, "All sales:", rows)
}

func (b *Bot) sendExpenses(ctx context.Context, chatID int64) {
	expenses, err := b.api.ListExpenses(ctx, b.today())
	if err != nil {
		b.replyCommitError(chatID, err, "The expense list is unavailable.")
		return
	}
	if len(expenses) == 0 {
		b.reply(chatID, "No expenses today.")
		return
	}

	rows := make([][]Button, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []Button{{
			Label: fmt.Sprintf("%s  %s", e.Reason, e.Amount),
			Data:  "expense:" + strconv.FormatInt(e.ID, 10),
		}})
	}
	b.replyKeyboard(chatID, "Today's expenses:", rows)
}

// sendMonthKeyboard offers the last six months, newest first.
func (b *Bot) sendMonthKeyboard(chatID int64) {
	now := b.now().UTC()
	rows := make([][]Button, 0, 6)
	for i := 0; i < 6; i++ {
		month := now.AddDate(0, -i, -now.Day()+1)
		rows = append(rows, []Button{{
			Label: fmt.Sprintf("%s %d", month.Month(), month.Year()),
			Data:  fmt.Sprintf("month:%d:%d", int(month.Month()), month.Year()),
		}})
	}
	b.replyKeyboard(chatID, "Which month?", rows)
}

// sendMonthlyReport answers a month:<m>:<y> button with the text summary
// and the month-grouped PDF.
func (b *Bot) sendMonthlyReport(ctx context.Context, chatID int64, data string) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}

	first, last := report.MonthBounds(year, time.Month(month))

	// Sales and expenses load in parallel.
	var (
		sales    []core.Sale
		expenses []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := b.api.ListSales(gctx, botapi.SalesQuery{From: first.String(), To: last.String()})
		if err != nil {
			return err
		}
		sales, err = salesFromResponses(resp)
		return err
	})
	g.Go(func() error {
		resp, err := b.api.ListExpensesBetween(gctx, first.String(), last.String())
		if err != nil {
			return err
		}
		expenses, err = expensesFromResponses(resp)
		return err
	})
	if err := g.Wait(); err != nil {
		b.replyCommitError(chatID, err, "The report is unavailable.")
		return
	}

	m := report.BuildMonthly(year, time.Month(month), sales, expenses)
	b.reply(chatID, report.RenderMonthlyText(m))

	if len(sales) == 0 && len(expenses) == 0 {
		return
	}
	path, err := report.MonthlyPDF(year, time.Month(month), sales, expenses)
	if err != nil {
		b.reply(chatID, "Something went wrong. The PDF is unavailable.")
		return
	}
	defer os.Remove(path)
	if err := b.send.SendDocument(chatID, path, fmt.Sprintf("Report for %s %d", time.Month(month), year)); err != nil {
		b.reply(chatID, "Something went wrong. The PDF is unavailable.")
	}
}

func (b *Bot) showSale(ctx context.Context, chatID int64, id int64) {
	sale, err := b.api.GetSale(ctx, id)
	if err != nil {
		b.replyCommitError(chatID, err, "The sale is unavailable.")
		return
	}

	text := fmt.Sprintf("%s\nQuantity: %d\nPrice: %s\nTotal: %s\nPayment: %s\nSold: %s\nShipped: %s",
		sale.Name, sale.Quantity, sale.PricePerUnit, sale.TotalPrice,
		sale.PaymentMethod, sale.SaleDate, sale.ShipmentDate)
	if sale.Comment != "" {
		text += "\nComment: " + sale.Comment
	}

	idStr := strconv.FormatInt(id, 10)
	b.replyKeyboard(chatID, text, [][]Button{{
		{Label: "Edit", Data: "edit_sale:" + idStr},
		{Label: "Delete", Data: "del_sale:" + idStr},
	}})
}

func (b *Bot) deleteSale(ctx context.Context, chatID int64, id int64) {
	if err := b.api.DeleteSale(ctx, id); err != nil {
		b.replyCommitError(chatID, err, "The sale was not deleted.")
		return
	}
	b.reply(chatID, "Sale deleted.")
}

func (b *Bot) startSaleEdit(ctx context.Context, chatID int64, id int64) {
	// Confirm the sale still exists before walking through the form.
	if _, err := b.api.GetSale(ctx, id); err != nil {
		b.replyCommitError(chatID, err, "The sale is unavailable.")
		return
	}
	sess := b.sessions.start(chatID, flowSale, stepSaleName)
	sess.saleID = id
	b.reply(chatID, "Editing the sale. What was sold?")
}

func (b *Bot) showExpense(ctx context.Context, chatID int64, id int64) {
	expense, err := b.api.GetExpense(ctx, id)
	if err != nil {
		b.replyCommitError(chatID, err, "The expense is unavailable.")
		return
	}

	text := fmt.Sprintf("%s\nAmount: %s\nDate: %s", expense.Reason, expense.Amount, expense.Date)
	if expense.Comment != "" {
		text += "\nComment: " + expense.Comment
	}

	idStr := strconv.FormatInt(id, 10)
	b.replyKeyboard(chatID, text, [][]Button{{
		{Label: "Edit", Data: "edit_expense:" + idStr},
		{Label: "Delete", Data: "del_expense:" + idStr},
	}})
}

func (b *Bot) deleteExpense(ctx context.Context, chatID int64, id int64) {
	if err := b.api.DeleteExpense(ctx, id); err != nil {
		b.replyCommitError(chatID, err, "The expense was not deleted.")
		return
	}
	b.reply(chatID, "Expense deleted.")
}

func (b *Bot) startExpenseEdit(ctx context.Context, chatID int64, id int64) {
	old, err := b.api.GetExpense(ctx, id)
	if err != nil {
		b.replyCommitError(chatID, err, "The expense is unavailable.")
		return
	}
	sess := b.sessions.start(chatID, flowExpense, stepExpenseReason)
	sess.expenseID = id
	sess.expense.Date = old.Date
	b.reply(chatID, "Editing the expense. What was it for?")
}

// runSearch ends the search flow: empty bounds mean all time.
func (b *Bot) runSearch(ctx context.Context, chatID int64, from, to string) {
	sess, ok := b.sessions.get(chatID)
	if !ok || sess.kind != flowSearch || sess.query == "" {
		b.reply(chatID, "Send /search to start a search.")
		return
	}
	query := sess.query
	b.sessions.clear(chatID)

	resp, err := b.api.ListSales(ctx, botapi.SalesQuery{Keyword: query, From: from, To: to})
	if err != nil {
		b.replyCommitError(chatID, err, "The search failed.")
		return
	}
	if len(resp) == 0 {
		b.reply(chatID, fmt.Sprintf("Nothing found for %q.", query))
		return
	}

	sales, err := salesFromResponses(resp)
	if err != nil {
		b.replyCommitError(chatID, err, "The search failed.")
		return
	}

	var total core.Money
	for _, s := range sales {
		total = total.Add(s.TotalPrice)
	}
	b.reply(chatID, fmt.Sprintf("Found %d sales for %q, total %s.", len(sales), query, total))

	path, err := report.SearchPDF(query, sales)
	if err != nil {
		b.reply(chatID, "Something went wrong. The PDF is unavailable.")
		return
	}
	defer os.Remove(path)
	if err := b.send.SendDocument(chatID, path, fmt.Sprintf("Sales matching %q", query)); err != nil {
		b.reply(chatID, "Something went wrong. The PDF is unavailable.")
	}
}

func (b *Bot) askSearchRange(chatID int64) {
	sess, ok := b.sessions.get(chatID)
	if !ok || sess.kind != flowSearch {
		b.reply(chatID, "Send /search to start a search.")
		return
	}
	sess.step = stepSearchRange
	b.reply(chatID, "Send the range as two dates: 2025-01-01 2025-03-31")
}

func salesFromResponses(resp []api.SaleResponse) ([]core.Sale, error) {
	sales := make([]core.Sale, 0, len(resp))
	for _, r := range resp {
		s, err := r.ToSale()
		if err != nil {
			return nil, fmt.Errorf("sale %d: %w", r.ID, err)
		}
		sales = append(sales, s)
	}
	return sales, nil
}

func expensesFromResponses(resp []api.ExpenseResponse) ([]core.Expense, error) {
	expenses := make([]core.Expense, 0, len(resp))
	for _, r := range resp {
		e, err := r.ToExpense()
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", r.ID, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func dailyFromResponse(resp api.DailyReportResponse) (report.Daily, error) {
	date, err := core.ParseDay(resp.Date)
	if err != nil {
		return report.Daily{}, err
	}
	sales, err := salesFromResponses(resp.Sales)
	if err != nil {
		return report.Daily{}, err
	}
	expenses, err := expensesFromResponses(resp.Expenses)
	if err != nil {
		return report.Daily{}, err
	}
	balance, err := core.ParseMoney(resp.CashBalance)
	if err != nil {
		return report.Daily{}, err
	}
	return report.Daily{Date: date, Sales: sales, Expenses: expenses, CashBalance: balance}, nil
}
