// Package cashbox is the cash reconciliation engine. It owns the daily
// CashRegister rows and is the single place that mutates the running cash
// balance in response to ledger events.
//
// The engine never opens its own transactions: callers hand it a
// RegisterStore that is already inside the same transaction as the ledger
// write, so the balance adjustment commits or rolls back together with the
// sale or expense that triggered it.
package cashbox

import (
	"context"
	"time"

	"kassa/internal/core"
)

// RegisterStore is the slice of the storage layer the engine needs. The
// fetch-or-create is idempotent: one row per day, created with a zero
// total on first touch.
type RegisterStore interface {
	EnsureRegister(ctx context.Context, day core.Day) (core.CashRegister, error)
	LatestRegister(ctx context.Context, atOrBefore core.Day) (core.CashRegister, bool, error)
	SetRegisterTotal(ctx context.Context, id int64, total core.Money) error
}

type Engine struct {
	store RegisterStore
	now   func() time.Time
}

func New(store RegisterStore) *Engine {
	return &Engine{store: store, now: time.Now}
}

// NewWithClock fixes "today" for tests.
func NewWithClock(store RegisterStore, now func() time.Time) *Engine {
	return &Engine{store: store, now: now}
}

func (e *Engine) today() core.Day {
	return core.DayOf(e.now())
}

// RecordExpense subtracts amount from the register row for day, clamping
// the balance at zero. Negative amounts are a validation error.
func (e *Engine) RecordExpense(ctx context.Context, amount core.Money, day core.Day) error {
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	reg, err := e.store.EnsureRegister(ctx, day)
	if err != nil {
		return err
	}
	return e.store.SetRegisterTotal(ctx, reg.ID, reg.CashTotal.Sub(amount).ClampZero())
}

// RecordCashTopUp adds amount to today's register. Unlike expenses and
// reversals, which clamp, non-positive top-ups are rejected outright.
func (e *Engine) RecordCashTopUp(ctx context.Context, amount core.Money) error {
	if !amount.IsPositive() {
		return core.ErrNonPositiveTopUp
	}
	return e.add(ctx, amount)
}

// RecordCashSale adds the sale total to today's register. Callers invoke
// this only for sales paid in cash.
func (e *Engine) RecordCashSale(ctx context.Context, total core.Money) error {
	if total.IsNegative() {
		return core.ErrInvalidAmount
	}
	return e.add(ctx, total)
}

// ReverseSale undoes a deleted sale's cash contribution: the exact
// original total is subtracted from today's balance, clamped at zero.
// Non-cash sales have no cash effect.
func (e *Engine) ReverseSale(ctx context.Context, total core.Money, method core.PaymentMethod) error {
	switch method {
	case core.PaymentCash:
		return e.subtractToday(ctx, total)
	case core.PaymentInvoice, core.PaymentCard:
		return nil
	default:
		return core.ErrInvalidPaymentMethod
	}
}

// ApplySaleEdit reconciles the balance after a sale edit. Four cases:
//
//	cash -> cash   adjust by (new - old)
//	cash -> other  subtract the old total
//	other -> cash  add the new total
//	other -> other no cash effect
//
// A no-op edit (same total, same method) leaves the balance untouched.
func (e *Engine) ApplySaleEdit(ctx context.Context, oldTotal core.Money, oldMethod core.PaymentMethod, newTotal core.Money, newMethod core.PaymentMethod) error {
	if !oldMethod.Valid() || !newMethod.Valid() {
		return core.ErrInvalidPaymentMethod
	}
	wasCash := oldMethod == core.PaymentCash
	isCash := newMethod == core.PaymentCash
	switch {
	case wasCash && isCash:
		delta := newTotal.Sub(oldTotal)
		if delta.IsZero() {
			return nil
		}
		return e.adjustToday(ctx, delta)
	case wasCash && !isCash:
		return e.subtractToday(ctx, oldTotal)
	case !wasCash && isCash:
		return e.add(ctx, newTotal)
	default:
		return nil
	}
}

// Balance returns the latest register total at or before day, or zero if
// no row exists yet.
func (e *Engine) Balance(ctx context.Context, day core.Day) (core.Money, error) {
	reg, ok, err := e.store.LatestRegister(ctx, day)
	if err != nil {
		return core.Money{}, err
	}
	if !ok {
		return core.Money{}, nil
	}
	return reg.CashTotal, nil
}

func (e *Engine) add(ctx context.Context, amount core.Money) error {
	return e.adjustToday(ctx, amount)
}

func (e *Engine) subtractToday(ctx context.Context, amount core.Money) error {
	return e.adjustToday(ctx, core.Money{Cents: -amount.Cents})
}

func (e *Engine) adjustToday(ctx context.Context, delta core.Money) error {
	reg, err := e.store.EnsureRegister(ctx, e.today())
	if err != nil {
		return err
	}
	return e.store.SetRegisterTotal(ctx, reg.ID, reg.CashTotal.Add(delta).ClampZero())
}
