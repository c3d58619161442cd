package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kassa/internal/core"
)

// handleFlowInput advances the active session by one step. Invalid input
// re-prompts the same step; the terminal step commits one API call and
// clears the session.
func (b *Bot) handleFlowInput(ctx context.Context, chatID int64, sess *session, text string) {
	switch sess.step {
	case stepSaleName:
		if text == "" {
			b.reply(chatID, "The name cannot be empty. What was sold?")
			return
		}
		sess.sale.Name = text
		sess.step = stepSaleQuantity
		b.reply(chatID, "How many units?")

	case stepSaleQuantity:
		qty, err := strconv.ParseInt(text, 10, 64)
		if err != nil || qty <= 0 {
			b.reply(chatID, "Quantity must be a positive whole number. How many units?")
			return
		}
		sess.sale.Quantity = qty
		sess.step = stepSalePrice
		b.reply(chatID, "Price per unit?")

	case stepSalePrice:
		if _, err := core.ParseMoney(text); err != nil {
			b.reply(chatID, "That is not a valid amount. Price per unit?")
			return
		}
		sess.sale.PricePerUnit = text
		sess.step = stepSalePayment
		b.reply(chatID, "Payment method? (invoice, card or cash)")

	case stepSalePayment:
		method, err := core.ParsePaymentMethod(text)
		if err != nil {
			b.reply(chatID, "Please answer invoice, card or cash.")
			return
		}
		sess.sale.PaymentMethod = string(method)
		sess.step = stepSaleDate
		b.reply(chatID, `Sale date? (YYYY-MM-DD or "today")`)

	case stepSaleDate:
		day, ok := b.parseDayInput(text)
		if !ok {
			b.reply(chatID, `Dates look like 2025-03-10. Sale date? (or "today")`)
			return
		}
		sess.sale.SaleDate = day
		sess.step = stepSaleShipDate
		b.reply(chatID, `Shipment date? (YYYY-MM-DD or "today")`)

	case stepSaleShipDate:
		day, ok := b.parseDayInput(text)
		if !ok {
			b.reply(chatID, `Dates look like 2025-03-10. Shipment date? (or "today")`)
			return
		}
		sess.sale.ShipmentDate = day
		sess.step = stepSaleComment
		b.reply(chatID, `Any comment? Send "-" for none.`)

	case stepSaleComment:
		if text != "-" {
			sess.sale.Comment = text
		}
		b.commitSale(ctx, chatID, sess)

	case stepExpenseReason:
		if text == "" {
			b.reply(chatID, "The reason cannot be empty. What was the expense for?")
			return
		}
		sess.expense.Reason = text
		sess.step = stepExpenseAmount
		b.reply(chatID, "How much?")

	case stepExpenseAmount:
		if _, err := core.ParseMoney(text); err != nil {
			b.reply(chatID, "That is not a valid amount. How much?")
			return
		}
		sess.expense.Amount = text
		sess.step = stepExpenseComment
		b.reply(chatID, `Any comment? Send "-" for none.`)

	case stepExpenseComment:
		if text != "-" {
			sess.expense.Comment = text
		}
		b.commitExpense(ctx, chatID, sess)

	case stepCashAmount:
		b.commitTopUp(ctx, chatID, text)

	case stepSearchQuery:
		if text == "" {
			b.reply(chatID, "What should I search for?")
			return
		}
		sess.query = text
		b.replyKeyboard(chatID, "For which period?", [][]Button{{
			{Label: "All time", Data: "all_time"},
			{Label: "Choose period", Data: "period"},
		}})

	case stepSearchRange:
		parts := strings.Fields(text)
		if len(parts) != 2 {
			b.reply(chatID, "Send the range as two dates: 2025-01-01 2025-03-31")
			return
		}
		from, err := core.ParseDay(parts[0])
		if err != nil {
			b.reply(chatID, "Send the range as two dates: 2025-01-01 2025-03-31")
			return
		}
		to, err := core.ParseDay(parts[1])
		if err != nil || to.Before(from) {
			b.reply(chatID, "Send the range as two dates: 2025-01-01 2025-03-31")
			return
		}
		b.runSearch(ctx, chatID, from.String(), to.String())

	default:
		b.sessions.clear(chatID)
		b.reply(chatID, "Send /start to see what I can do.")
	}
}

func (b *Bot) parseDayInput(text string) (string, bool) {
	if strings.EqualFold(text, "today") {
		return b.today(), true
	}
	day, err := core.ParseDay(text)
	if err != nil {
		return "", false
	}
	return day.String(), true
}

func (b *Bot) commitSale(ctx context.Context, chatID int64, sess *session) {
	saleID := sess.saleID
	draft := sess.sale
	b.sessions.clear(chatID)

	if saleID == 0 {
		created, err := b.api.CreateSale(ctx, draft)
		if err != nil {
			b.replyCommitError(chatID, err, "The sale was not saved.")
			return
		}
		b.reply(chatID, fmt.Sprintf("Saved: %s x%d = %s (%s)",
			created.Name, created.Quantity, created.TotalPrice, created.PaymentMethod))
		return
	}

	updated, err := b.api.UpdateSale(ctx, saleID, draft)
	if err != nil {
		b.replyCommitError(chatID, err, "The sale was not updated.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Updated: %s x%d = %s (%s)",
		updated.Name, updated.Quantity, updated.TotalPrice, updated.PaymentMethod))
}

func (b *Bot) commitExpense(ctx context.Context, chatID int64, sess *session) {
	expenseID := sess.expenseID
	draft := sess.expense
	b.sessions.clear(chatID)

	if expenseID == 0 {
		created, err := b.api.CreateExpense(ctx, draft)
		if err != nil {
			b.replyCommitError(chatID, err, "The expense was not saved.")
			return
		}
		b.reply(chatID, fmt.Sprintf("Saved expense: %s, %s", created.Reason, created.Amount))
		return
	}

	updated, err := b.api.UpdateExpense(ctx, expenseID, draft)
	if err != nil {
		b.replyCommitError(chatID, err, "The expense was not updated.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Updated expense: %s, %s", updated.Reason, updated.Amount))
}

// commitTopUp is the one terminal step that re-prompts on validation
// failure, since the amount is the whole flow.
func (b *Bot) commitTopUp(ctx context.Context, chatID int64, text string) {
	if _, err := core.ParseMoney(text); err != nil {
		b.reply(chatID, "That is not a valid amount. How much cash was added?")
		return
	}

	balance, err := b.api.TopUpCash(ctx, text)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			b.reply(chatID, "The amount must be above zero. How much cash was added?")
			return
		}
		b.sessions.clear(chatID)
		b.replyCommitError(chatID, err, "The cash was not recorded.")
		return
	}

	b.sessions.clear(chatID)
	b.reply(chatID, "Cash balance: "+balance.Balance)
}

// replyCommitError shows validation messages as-is and hides everything
// else behind a generic failure line.
func (b *Bot) replyCommitError(chatID int64, err error, fallback string) {
	if errors.Is(err, core.ErrValidation) {
		b.reply(chatID, err.Error())
		return
	}
	if errors.Is(err, core.ErrNotFound) {
		b.reply(chatID, "That entry no longer exists.")
		return
	}
	b.reply(chatID, "Something went wrong. "+fallback)
}
