package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PaymentMethod is the closed set of ways a sale can be paid. Only Cash
// affects the register balance.
type PaymentMethod string

const (
	PaymentInvoice PaymentMethod = "invoice"
	PaymentCard    PaymentMethod = "card"
	PaymentCash    PaymentMethod = "cash"
)

// ErrValidation is the root of the input-validation taxonomy. Every
// field-specific sentinel wraps it so callers can match the whole class
// with errors.Is.
var ErrValidation = errors.New("validation error")

var (
	ErrInvalidAmount        = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidQuantity      = fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	ErrInvalidPaymentMethod = fmt.Errorf("%w: payment method must be invoice, card or cash", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrValidation)
	ErrEmptyName            = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptyReason          = fmt.Errorf("%w: empty reason", ErrValidation)
	ErrNonPositiveTopUp     = fmt.Errorf("%w: top-up amount must be positive", ErrValidation)
)

// ErrNotFound is returned when an entity referenced by ID does not exist.
var ErrNotFound = errors.New("not found")

// ParsePaymentMethod validates raw user or API input against the enum.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentInvoice:
		return PaymentInvoice, nil
	case PaymentCard:
		return PaymentCard, nil
	case PaymentCash:
		return PaymentCash, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentInvoice, PaymentCard, PaymentCash:
		return true
	}
	return false
}

const dayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day component, always UTC.
type Day struct {
	time.Time
}

func NewDay(year, month, day int) Day {
	return Day{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates an instant to its calendar date.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), int(t.Month()), t.Day())
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(s))
	if err != nil {
		return Day{}, ErrInvalidDate
	}
	return Day{Time: t}, nil
}

func (d Day) String() string {
	return d.Format(dayLayout)
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	return d.Time.Before(other.Time)
}

func (d Day) After(other Day) bool {
	return d.Time.After(other.Time)
}

// Sale is one ledger entry for goods sold. TotalPrice is derived from
// Quantity and PricePerUnit on every write and never trusted from input.
type Sale struct {
	ID            int64
	Name          string
	Quantity      int64
	PricePerUnit  Money
	TotalPrice    Money
	PaymentMethod PaymentMethod
	SaleDate      Day
	ShipmentDate  Day
	Comment       string
}

// Normalize recomputes the derived total from quantity and unit price.
func (s *Sale) Normalize() {
	s.TotalPrice = s.PricePerUnit.MulInt(s.Quantity)
}

func (s Sale) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if s.PricePerUnit.IsNegative() {
		return ErrInvalidAmount
	}
	if !s.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if s.SaleDate.IsZero() || s.ShipmentDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Expense is one ledger entry for money spent.
type Expense struct {
	ID      int64
	Reason  string
	Amount  Money
	Comment string
	Date    Day
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Reason) == "" {
		return ErrEmptyReason
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// CashRegister is the running cash balance for one calendar day. One row
// per day; the reconciliation engine is the only writer.
type CashRegister struct {
	ID        int64
	Date      Day
	CashTotal Money
}
