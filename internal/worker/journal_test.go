package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kassa/internal/amqp"
	"kassa/internal/core"
	"kassa/internal/sheets/memory"
	"kassa/internal/storage"
)

func newTestWorker(t *testing.T) (*JournalWorker, *storage.Repository, *memory.Journal) {
	t.Helper()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "kassa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	journal := memory.New()
	return NewJournalWorker(repo, journal), repo, journal
}

func TestSaleCreatedLoadsRow(t *testing.T) {
	w, repo, journal := newTestWorker(t)
	ctx := context.Background()

	s := core.Sale{
		Name:          "Plywood 12mm",
		Quantity:      4,
		PricePerUnit:  core.MoneyFromCents(125000),
		PaymentMethod: core.PaymentCash,
		SaleDate:      core.NewDay(2025, 3, 10),
		ShipmentDate:  core.NewDay(2025, 3, 12),
	}
	s.Normalize()
	id, err := repo.CreateSale(ctx, s)
	require.NoError(t, err)

	ev := amqp.LedgerEvent{Kind: amqp.EventSaleCreated, EntityID: id, Timestamp: time.Now()}
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))

	rows := journal.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "sale.created", rows[0].Kind)
	assert.Equal(t, "Plywood 12mm x4", rows[0].Description)
	assert.Equal(t, "5000.00", rows[0].Amount)
	assert.Equal(t, "cash", rows[0].Method)
	assert.Equal(t, "2025-03-10", rows[0].Date)
}

func TestDeletedEventUsesSnapshot(t *testing.T) {
	w, _, journal := newTestWorker(t)
	ctx := context.Background()

	ev := amqp.LedgerEvent{
		Kind:        amqp.EventSaleDeleted,
		EntityID:    7,
		Description: "Plywood 12mm",
		AmountCents: 500000,
		Method:      "cash",
		Date:        "2025-03-10",
		Timestamp:   time.Now(),
	}
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))

	rows := journal.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Plywood 12mm", rows[0].Description)
	assert.Equal(t, "5000.00", rows[0].Amount)
}

func TestMissingRowIsSkippedNotRetried(t *testing.T) {
	w, _, journal := newTestWorker(t)

	ev := amqp.LedgerEvent{Kind: amqp.EventSaleCreated, EntityID: 999, Timestamp: time.Now()}
	require.NoError(t, w.HandleLedgerEvent(context.Background(), ev))
	assert.Empty(t, journal.Rows())
}

func TestCashTopUpEvent(t *testing.T) {
	w, _, journal := newTestWorker(t)

	ev := amqp.LedgerEvent{
		Kind:        amqp.EventCashTopUp,
		AmountCents: 25000,
		Date:        "2025-03-15",
		Timestamp:   time.Now(),
	}
	require.NoError(t, w.HandleLedgerEvent(context.Background(), ev))

	rows := journal.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "cash top-up", rows[0].Description)
	assert.Equal(t, "250.00", rows[0].Amount)
}

func TestExpenseCreatedLoadsRow(t *testing.T) {
	w, repo, journal := newTestWorker(t)
	ctx := context.Background()

	id, err := repo.CreateExpense(ctx, core.Expense{
		Reason: "fuel",
		Amount: core.MoneyFromCents(3000),
		Date:   core.NewDay(2025, 3, 10),
	})
	require.NoError(t, err)

	ev := amqp.LedgerEvent{Kind: amqp.EventExpenseCreated, EntityID: id, Timestamp: time.Now()}
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))

	rows := journal.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "fuel", rows[0].Description)
	assert.Equal(t, "30.00", rows[0].Amount)
	assert.Empty(t, rows[0].Method)
}
