// Package worker turns consumed ledger events into journal rows. Create
// and update events carry only an entity ID, so the worker loads the
// current row from storage; delete and top-up events carry a snapshot.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kassa/internal/amqp"
	"kassa/internal/core"
	"kassa/internal/sheets"
	"kassa/internal/storage"
)

type JournalWorker struct {
	repo    *storage.Repository
	journal sheets.JournalAppender
}

func NewJournalWorker(repo *storage.Repository, journal sheets.JournalAppender) *JournalWorker {
	return &JournalWorker{repo: repo, journal: journal}
}

// HandleLedgerEvent exports one event. Returning an error makes the
// consumer nack and requeue; a row that vanished before the worker caught
// up is logged and acked, since requeueing could never succeed.
func (w *JournalWorker) HandleLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	row, ok, err := w.rowFor(ctx, ev)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := w.journal.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("append journal row: %w", err)
	}

	slog.InfoContext(ctx, "Exported ledger event",
		"kind", ev.Kind,
		"entity_id", ev.EntityID)
	return nil
}

func (w *JournalWorker) rowFor(ctx context.Context, ev amqp.LedgerEvent) (sheets.JournalRow, bool, error) {
	row := sheets.JournalRow{
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
		Kind:      string(ev.Kind),
		EntityID:  ev.EntityID,
	}

	switch ev.Kind {
	case amqp.EventSaleCreated, amqp.EventSaleUpdated:
		sale, err := w.repo.GetSale(ctx, ev.EntityID)
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Sale gone before export, skipping",
				"entity_id", ev.EntityID, "kind", ev.Kind)
			return sheets.JournalRow{}, false, nil
		}
		if err != nil {
			return sheets.JournalRow{}, false, fmt.Errorf("load sale %d: %w", ev.EntityID, err)
		}
		row.Description = fmt.Sprintf("%s x%d", sale.Name, sale.Quantity)
		row.Amount = sale.TotalPrice.String()
		row.Method = string(sale.PaymentMethod)
		row.Date = sale.SaleDate.String()

	case amqp.EventExpenseCreated, amqp.EventExpenseUpdated:
		expense, err := w.repo.GetExpense(ctx, ev.EntityID)
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Expense gone before export, skipping",
				"entity_id", ev.EntityID, "kind", ev.Kind)
			return sheets.JournalRow{}, false, nil
		}
		if err != nil {
			return sheets.JournalRow{}, false, fmt.Errorf("load expense %d: %w", ev.EntityID, err)
		}
		row.Description = expense.Reason
		row.Amount = expense.Amount.String()
		row.Date = expense.Date.String()

	case amqp.EventSaleDeleted, amqp.EventExpenseDeleted:
		row.Description = ev.Description
		row.Amount = core.MoneyFromCents(ev.AmountCents).String()
		row.Method = ev.Method
		row.Date = ev.Date

	case amqp.EventCashTopUp:
		row.Description = "cash top-up"
		row.Amount = core.MoneyFromCents(ev.AmountCents).String()
		row.Date = ev.Date

	default:
		slog.WarnContext(ctx, "Unknown event kind, skipping", "kind", ev.Kind)
		return sheets.JournalRow{}, false, nil
	}

	return row, true, nil
}
