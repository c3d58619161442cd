// Package services holds the application layer: each mutation runs the
// ledger write and its cash reconciliation inside one transaction, then
// publishes a ledger event for the journal worker.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kassa/internal/amqp"
	"kassa/internal/cashbox"
	"kassa/internal/core"
	"kassa/internal/storage"
)

// Publisher is the slice of the AMQP client the ledger needs. A nil
// Publisher disables the event feed entirely.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

type Ledger struct {
	repo *storage.Repository
	pub  Publisher
	now  func() time.Time
}

func NewLedger(repo *storage.Repository, pub Publisher) *Ledger {
	return &Ledger{repo: repo, pub: pub, now: time.Now}
}

// NewLedgerWithClock fixes "today" for tests.
func NewLedgerWithClock(repo *storage.Repository, pub Publisher, now func() time.Time) *Ledger {
	return &Ledger{repo: repo, pub: pub, now: now}
}

// CreateSale validates, recomputes the total, stores the sale and, for
// cash sales, adds the total to today's register in the same transaction.
func (l *Ledger) CreateSale(ctx context.Context, s core.Sale) (core.Sale, error) {
	s.Normalize()
	if err := s.Validate(); err != nil {
		return core.Sale{}, err
	}

	err := l.repo.WithTx(ctx, func(tx *storage.Tx) error {
		id, err := tx.CreateSale(ctx, s)
		if err != nil {
			return err
		}
		s.ID = id
		if s.PaymentMethod == core.PaymentCash {
			return l.engine(tx).RecordCashSale(ctx, s.TotalPrice)
		}
		return nil
	})
	if err != nil {
		return core.Sale{}, fmt.Errorf("create sale: %w", err)
	}

	l.publish(ctx, amqp.NewLedgerEvent(amqp.EventSaleCreated, s.ID))
	return s, nil
}

// UpdateSale replaces the stored sale and reconciles the cash balance
// against the previous total and payment method.
func (l *Ledger) UpdateSale(ctx context.Context, s core.Sale) (core.Sale, error) {
	s.Normalize()
	if err := s.Validate(); err != nil {
		return core.Sale{}, err
	}

	err := l.repo.WithTx(ctx, func(tx *storage.Tx) error {
		old, err := tx.GetSale(ctx, s.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateSale(ctx, s); err != nil {
			return err
		}
		return l.engine(tx).ApplySaleEdit(ctx, old.TotalPrice, old.PaymentMethod, s.TotalPrice, s.PaymentMethod)
	})
	if err != nil {
		return core.Sale{}, fmt.Errorf("update sale %d: %w", s.ID, err)
	}

	l.publish(ctx, amqp.NewLedgerEvent(amqp.EventSaleUpdated, s.ID))
	return s, nil
}

// DeleteSale removes the sale and reverses its cash contribution.
func (l *Ledger) DeleteSale(ctx context.Context, id int64) error {
	var old core.Sale
	err := l.repo.WithTx(ctx, func(tx *storage.Tx) error {
		var err error
		old, err = tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteSale(ctx, id); err != nil {
			return err
		}
		return l.engine(tx).ReverseSale(ctx, old.TotalPrice, old.PaymentMethod)
	})
	if err != nil {
		return fmt.Errorf("delete sale %d: %w", id, err)
	}

	// The row is gone, so the event carries a snapshot.
	ev := amqp.NewLedgerEvent(amqp.EventSaleDeleted, id)
	ev.Description = old.Name
	ev.AmountCents = old.TotalPrice.Cents
	ev.Method = string(old.PaymentMethod)
	ev.Date = old.SaleDate.String()
	l.publish(ctx, ev)
	return nil
}

func (l *Ledger) GetSale(ctx context.Context, id int64) (core.Sale, error) {
	return l.repo.GetSale(ctx, id)
}

func (l *Ledger) ListSalesByDay(ctx context.Context, day core.Day) ([]core.Sale, error) {
	return l.repo.ListSalesByDay(ctx, day)
}

func (l *Ledger) ListSalesBetween(ctx context.Context, from, to core.Day) ([]core.Sale, error) {
	return l.repo.ListSalesBetween(ctx, from, to)
}

func (l *Ledger) ListAllSales(ctx context.Context) ([]core.Sale, error) {
	return l.repo.ListAllSales(ctx)
}

// CreateExpense stores the expense and subtracts its amount from the
// register row for the expense's date, clamped at zero.
func (l *Ledger) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	err := l.repo.WithTx(ctx, func(tx *storage.Tx) error {
		id, err := tx.CreateExpense(ctx, e)
		if err != nil {
			return err
		}
		e.ID = id
		return l.engine(tx).RecordExpense(ctx, e.Amount, e.Date)
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	l.publish(ctx, amqp.NewLedgerEvent(amqp.EventExpenseCreated, e.ID))
	return e, nil
}

// UpdateExpense rewrites the stored expense. Expense edits do not touch
// the register: only the original deduction counts.
func (l *Ledger) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := l.repo.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	l.publish(ctx, amqp.NewLedgerEvent(amqp.EventExpenseUpdated, e.ID))
	return e, nil
}

// DeleteExpense removes the expense without refunding the register.
func (l *Ledger) DeleteExpense(ctx context.Context, id int64) error {
	old, err := l.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := l.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	ev := amqp.NewLedgerEvent(amqp.EventExpenseDeleted, id)
	ev.Description = old.Reason
	ev.AmountCents = old.Amount.Cents
	ev.Date = old.Date.String()
	l.publish(ctx, ev)
	return nil
}

func (l *Ledger) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return l.repo.GetExpense(ctx, id)
}

func (l *Ledger) ListExpensesByDay(ctx context.Context, day core.Day) ([]core.Expense, error) {
	return l.repo.ListExpensesByDay(ctx, day)
}

func (l *Ledger) ListExpensesBetween(ctx context.Context, from, to core.Day) ([]core.Expense, error) {
	return l.repo.ListExpensesBetween(ctx, from, to)
}

// TopUpCash adds amount to today's register and returns the new balance.
func (l *Ledger) TopUpCash(ctx context.Context, amount core.Money) (core.Money, error) {
	var balance core.Money
	today := core.DayOf(l.now())
	err := l.repo.WithTx(ctx, func(tx *storage.Tx) error {
		engine := l.engine(tx)
		if err := engine.RecordCashTopUp(ctx, amount); err != nil {
			return err
		}
		var err error
		balance, err = engine.Balance(ctx, today)
		return err
	})
	if err != nil {
		return core.Money{}, err
	}

	ev := amqp.NewLedgerEvent(amqp.EventCashTopUp, 0)
	ev.AmountCents = amount.Cents
	ev.Date = today.String()
	l.publish(ctx, ev)
	return balance, nil
}

// CashBalance returns the register balance effective on day: the latest
// row at or before it, zero when the register has no history.
func (l *Ledger) CashBalance(ctx context.Context, day core.Day) (core.Money, error) {
	return cashbox.NewWithClock(l.repo, l.now).Balance(ctx, day)
}

func (l *Ledger) engine(tx *storage.Tx) *cashbox.Engine {
	return cashbox.NewWithClock(tx, l.now)
}

// publish is best effort: the transaction has already committed, so a
// feed failure is logged and swallowed rather than undoing the write.
func (l *Ledger) publish(ctx context.Context, ev amqp.LedgerEvent) {
	if l.pub == nil {
		return
	}
	if err := l.pub.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"error", err,
			"kind", ev.Kind,
			"entity_id", ev.EntityID)
	}
}
