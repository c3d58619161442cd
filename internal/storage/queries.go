package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kassa/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query runs
// unchanged inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const saleColumns = `id, name, quantity, price_per_unit_cents, total_price_cents, payment_method, sale_date, shipment_date, comment`

func scanSale(row interface{ Scan(...any) error }) (core.Sale, error) {
	var (
		s          core.Sale
		priceCents int64
		totalCents int64
		method     string
		saleDate   string
		shipDate   string
	)
	err := row.Scan(&s.ID, &s.Name, &s.Quantity, &priceCents, &totalCents, &method, &saleDate, &shipDate, &s.Comment)
	if err != nil {
		return core.Sale{}, err
	}
	s.PricePerUnit = core.MoneyFromCents(priceCents)
	s.TotalPrice = core.MoneyFromCents(totalCents)
	s.PaymentMethod = core.PaymentMethod(method)
	if s.SaleDate, err = core.ParseDay(saleDate); err != nil {
		return core.Sale{}, fmt.Errorf("sale %d: bad sale_date %q", s.ID, saleDate)
	}
	if s.ShipmentDate, err = core.ParseDay(shipDate); err != nil {
		return core.Sale{}, fmt.Errorf("sale %d: bad shipment_date %q", s.ID, shipDate)
	}
	return s, nil
}

func (q *Queries) CreateSale(ctx context.Context, s core.Sale) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO sales (name, quantity, price_per_unit_cents, total_price_cents, payment_method, sale_date, shipment_date, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Quantity, s.PricePerUnit.Cents, s.TotalPrice.Cents,
		string(s.PaymentMethod), s.SaleDate.String(), s.ShipmentDate.String(), s.Comment)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sale id: %w", err)
	}
	return id, nil
}

func (q *Queries) GetSale(ctx context.Context, id int64) (core.Sale, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	s, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Sale{}, fmt.Errorf("sale %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Sale{}, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

func (q *Queries) UpdateSale(ctx context.Context, s core.Sale) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE sales
		SET name = ?, quantity = ?, price_per_unit_cents = ?, total_price_cents = ?,
		    payment_method = ?, sale_date = ?, shipment_date = ?, comment = ?
		WHERE id = ?`,
		s.Name, s.Quantity, s.PricePerUnit.Cents, s.TotalPrice.Cents,
		string(s.PaymentMethod), s.SaleDate.String(), s.ShipmentDate.String(), s.Comment, s.ID)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	return requireRow(res, s.ID)
}

func (q *Queries) DeleteSale(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return requireRow(res, id)
}

func (q *Queries) ListSalesByDay(ctx context.Context, day core.Day) ([]core.Sale, error) {
	return q.listSales(ctx, `SELECT `+saleColumns+` FROM sales WHERE sale_date = ? ORDER BY id`, day.String())
}

func (q *Queries) ListSalesBetween(ctx context.Context, from, to core.Day) ([]core.Sale, error) {
	return q.listSales(ctx, `
		SELECT `+saleColumns+` FROM sales
		WHERE sale_date >= ? AND sale_date <= ?
		ORDER BY sale_date, id`, from.String(), to.String())
}

// ListAllSales returns the full ledger ordered by sale date, for
// unbounded keyword searches.
func (q *Queries) ListAllSales(ctx context.Context) ([]core.Sale, error) {
	return q.listSales(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY sale_date, id`)
}

func (q *Queries) listSales(ctx context.Context, query string, args ...any) ([]core.Sale, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []core.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

const expenseColumns = `id, reason, amount_cents, comment, expense_date`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e           core.Expense
		amountCents int64
		date        string
	)
	err := row.Scan(&e.ID, &e.Reason, &amountCents, &e.Comment, &date)
	if err != nil {
		return core.Expense{}, err
	}
	e.Amount = core.MoneyFromCents(amountCents)
	if e.Date, err = core.ParseDay(date); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: bad date %q", e.ID, date)
	}
	return e, nil
}

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO expenses (reason, amount_cents, comment, expense_date)
		VALUES (?, ?, ?, ?)`,
		e.Reason, e.Amount.Cents, e.Comment, e.Date.String())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}
	return id, nil
}

func (q *Queries) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE expenses SET reason = ?, amount_cents = ?, comment = ?, expense_date = ?
		WHERE id = ?`,
		e.Reason, e.Amount.Cents, e.Comment, e.Date.String(), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res, e.ID)
}

func (q *Queries) DeleteExpense(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res, id)
}

func (q *Queries) ListExpensesByDay(ctx context.Context, day core.Day) ([]core.Expense, error) {
	return q.listExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE expense_date = ? ORDER BY id`, day.String())
}

func (q *Queries) ListExpensesBetween(ctx context.Context, from, to core.Day) ([]core.Expense, error) {
	return q.listExpenses(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE expense_date >= ? AND expense_date <= ?
		ORDER BY expense_date, id`, from.String(), to.String())
}

func (q *Queries) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// EnsureRegister fetches or creates the register row for day. The UNIQUE
// index on register_date makes the insert idempotent, so concurrent
// callers converge on the same row.
func (q *Queries) EnsureRegister(ctx context.Context, day core.Day) (core.CashRegister, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO cash_registers (register_date, cash_total_cents)
		VALUES (?, 0)
		ON CONFLICT(register_date) DO NOTHING`, day.String())
	if err != nil {
		return core.CashRegister{}, fmt.Errorf("ensure register: %w", err)
	}
	row := q.db.QueryRowContext(ctx, `
		SELECT id, register_date, cash_total_cents FROM cash_registers
		WHERE register_date = ?`, day.String())
	return scanRegister(row)
}

// LatestRegister returns the newest register row at or before the given
// day, reporting false when the register has no history yet.
func (q *Queries) LatestRegister(ctx context.Context, atOrBefore core.Day) (core.CashRegister, bool, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, register_date, cash_total_cents FROM cash_registers
		WHERE register_date <= ?
		ORDER BY register_date DESC
		LIMIT 1`, atOrBefore.String())
	reg, err := scanRegister(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CashRegister{}, false, nil
	}
	if err != nil {
		return core.CashRegister{}, false, err
	}
	return reg, true, nil
}

func (q *Queries) SetRegisterTotal(ctx context.Context, id int64, total core.Money) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE cash_registers SET cash_total_cents = ? WHERE id = ?`,
		total.Cents, id)
	if err != nil {
		return fmt.Errorf("set register total: %w", err)
	}
	return requireRow(res, id)
}

func scanRegister(row interface{ Scan(...any) error }) (core.CashRegister, error) {
	var (
		reg        core.CashRegister
		date       string
		totalCents int64
	)
	if err := row.Scan(&reg.ID, &date, &totalCents); err != nil {
		return core.CashRegister{}, err
	}
	var err error
	if reg.Date, err = core.ParseDay(date); err != nil {
		return core.CashRegister{}, fmt.Errorf("register %d: bad date %q", reg.ID, date)
	}
	reg.CashTotal = core.MoneyFromCents(totalCents)
	return reg, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, core.ErrNotFound)
	}
	return nil
}
