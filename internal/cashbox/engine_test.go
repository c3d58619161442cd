package cashbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"kassa/internal/core"
)

// memStore is an in-memory RegisterStore with the same one-row-per-day
// semantics as the SQLite layer.
type memStore struct {
	nextID int64
	rows   map[string]*core.CashRegister
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, rows: map[string]*core.CashRegister{}}
}

func (s *memStore) EnsureRegister(_ context.Context, day core.Day) (core.CashRegister, error) {
	if r, ok := s.rows[day.String()]; ok {
		return *r, nil
	}
	r := &core.CashRegister{ID: s.nextID, Date: day}
	s.nextID++
	s.rows[day.String()] = r
	return *r, nil
}

func (s *memStore) LatestRegister(_ context.Context, atOrBefore core.Day) (core.CashRegister, bool, error) {
	var best *core.CashRegister
	for _, r := range s.rows {
		if r.Date.After(atOrBefore) {
			continue
		}
		if best == nil || r.Date.After(best.Date) {
			best = r
		}
	}
	if best == nil {
		return core.CashRegister{}, false, nil
	}
	return *best, true, nil
}

func (s *memStore) SetRegisterTotal(_ context.Context, id int64, total core.Money) error {
	for _, r := range s.rows {
		if r.ID == id {
			r.CashTotal = total
			return nil
		}
	}
	return core.ErrNotFound
}

var testDay = core.NewDay(2025, 3, 15)

func newTestEngine() (*Engine, *memStore) {
	store := newMemStore()
	eng := NewWithClock(store, func() time.Time {
		return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	})
	return eng, store
}

func balance(t *testing.T, eng *Engine) int64 {
	t.Helper()
	m, err := eng.Balance(context.Background(), testDay)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	return m.Cents
}

func TestTopUpRejectsNonPositive(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	for _, cents := range []int64{0, -500} {
		err := eng.RecordCashTopUp(ctx, core.MoneyFromCents(cents))
		if !errors.Is(err, core.ErrNonPositiveTopUp) {
			t.Errorf("TopUp(%d) = %v, want ErrNonPositiveTopUp", cents, err)
		}
	}
	if got := balance(t, eng); got != 0 {
		t.Errorf("balance after rejected top-ups = %d, want 0", got)
	}
}

func TestExpenseClampsThenTopUp(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	// Balance starts at 1000; an expense of 1500 clamps to 0, not -500.
	if err := eng.RecordCashTopUp(ctx, core.MoneyFromCents(100000)); err != nil {
		t.Fatal(err)
	}
	if err := eng.RecordExpense(ctx, core.MoneyFromCents(150000), testDay); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, eng); got != 0 {
		t.Fatalf("balance after clamp = %d, want 0", got)
	}
	if err := eng.RecordCashTopUp(ctx, core.MoneyFromCents(30000)); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, eng); got != 30000 {
		t.Fatalf("balance after top-up = %d, want 30000", got)
	}
}

func TestClampAtEveryStep(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	// Clamping happens per step, not at the end: the deficit from the
	// first expense must not eat into the later sale.
	steps := []struct {
		apply func() error
		want  int64
	}{
		{func() error { return eng.RecordCashSale(ctx, core.MoneyFromCents(1000)) }, 1000},
		{func() error { return eng.RecordExpense(ctx, core.MoneyFromCents(5000), testDay) }, 0},
		{func() error { return eng.RecordCashSale(ctx, core.MoneyFromCents(2000)) }, 2000},
		{func() error { return eng.RecordExpense(ctx, core.MoneyFromCents(500), testDay) }, 1500},
		{func() error { return eng.RecordCashTopUp(ctx, core.MoneyFromCents(100)) }, 1600},
	}
	for i, step := range steps {
		if err := step.apply(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := balance(t, eng); got != step.want {
			t.Fatalf("step %d: balance = %d, want %d", i, got, step.want)
		}
	}
}

func TestReverseSaleExactAmount(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	if err := eng.RecordCashTopUp(ctx, core.MoneyFromCents(10000)); err != nil {
		t.Fatal(err)
	}
	before := balance(t, eng)

	// Create then delete a cash sale of 50.00: balance returns exactly.
	if err := eng.RecordCashSale(ctx, core.MoneyFromCents(5000)); err != nil {
		t.Fatal(err)
	}
	if err := eng.ReverseSale(ctx, core.MoneyFromCents(5000), core.PaymentCash); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, eng); got != before {
		t.Fatalf("balance = %d, want %d", got, before)
	}

	// Re-creating an identical cash sale restores the pre-delete value.
	if err := eng.RecordCashSale(ctx, core.MoneyFromCents(5000)); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, eng); got != before+5000 {
		t.Fatalf("balance = %d, want %d", got, before+5000)
	}
}

func TestReverseSaleNonCashNoEffect(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	if err := eng.RecordCashTopUp(ctx, core.MoneyFromCents(7000)); err != nil {
		t.Fatal(err)
	}
	for _, m := range []core.PaymentMethod{core.PaymentCard, core.PaymentInvoice} {
		if err := eng.ReverseSale(ctx, core.MoneyFromCents(5000), m); err != nil {
			t.Fatal(err)
		}
	}
	if got := balance(t, eng); got != 7000 {
		t.Fatalf("balance = %d, want 7000", got)
	}
}

func TestApplySaleEdit(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name      string
		start     int64
		oldTotal  int64
		oldMethod core.PaymentMethod
		newTotal  int64
		newMethod core.PaymentMethod
		want      int64
	}{
		{"noop edit", 5000, 5000, core.PaymentCash, 5000, core.PaymentCash, 5000},
		{"cash to cash, raised", 5000, 2000, core.PaymentCash, 3000, core.PaymentCash, 6000},
		{"cash to cash, lowered", 5000, 3000, core.PaymentCash, 2000, core.PaymentCash, 4000},
		{"cash to card", 5000, 5000, core.PaymentCash, 5000, core.PaymentCard, 0},
		{"card to cash", 5000, 5000, core.PaymentCard, 4000, core.PaymentCash, 9000},
		{"card to invoice", 5000, 5000, core.PaymentCard, 4000, core.PaymentInvoice, 5000},
		{"cash to card clamps", 1000, 5000, core.PaymentCash, 5000, core.PaymentCard, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng, _ := newTestEngine()
			if tc.start > 0 {
				if err := eng.RecordCashTopUp(ctx, core.MoneyFromCents(tc.start)); err != nil {
					t.Fatal(err)
				}
			}
			err := eng.ApplySaleEdit(ctx,
				core.MoneyFromCents(tc.oldTotal), tc.oldMethod,
				core.MoneyFromCents(tc.newTotal), tc.newMethod)
			if err != nil {
				t.Fatal(err)
			}
			if got := balance(t, eng); got != tc.want {
				t.Fatalf("balance = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCashSaleEditToCardNetsZero(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	// Sale of 10 x 5.00 paid cash, then edited to card: net zero change
	// from the pre-creation baseline.
	total := core.MoneyFromCents(500).MulInt(10)
	if err := eng.RecordCashSale(ctx, total); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, eng); got != 5000 {
		t.Fatalf("balance after cash sale = %d, want 5000", got)
	}
	if err := eng.ApplySaleEdit(ctx, total, core.PaymentCash, total, core.PaymentCard); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, eng); got != 0 {
		t.Fatalf("balance after edit to card = %d, want 0", got)
	}
}

func TestBalanceBeforeAnyRow(t *testing.T) {
	eng, _ := newTestEngine()
	if got := balance(t, eng); got != 0 {
		t.Fatalf("empty balance = %d, want 0", got)
	}
}

func TestBalanceUsesLatestAtOrBefore(t *testing.T) {
	store := newMemStore()
	eng := NewWithClock(store, func() time.Time {
		return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	})
	ctx := context.Background()
	if err := eng.RecordCashTopUp(ctx, core.MoneyFromCents(4200)); err != nil {
		t.Fatal(err)
	}

	// A later day with no row of its own falls back to the 03-10 row.
	m, err := eng.Balance(ctx, core.NewDay(2025, 3, 12))
	if err != nil {
		t.Fatal(err)
	}
	if m.Cents != 4200 {
		t.Fatalf("balance on later day = %d, want 4200", m.Cents)
	}

	// A day before the first row is zero.
	m, err = eng.Balance(ctx, core.NewDay(2025, 3, 9))
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsZero() {
		t.Fatalf("balance on earlier day = %d, want 0", m.Cents)
	}
}
