package bot

import (
	"sync"

	"kassa/internal/api"
)

type flowKind int

const (
	flowNone flowKind = iota
	flowSale
	flowExpense
	flowCash
	flowSearch
)

// Flow steps. Each step names the field the next message fills in.
const (
	stepSaleName = iota
	stepSaleQuantity
	stepSalePrice
	stepSalePayment
	stepSaleDate
	stepSaleShipDate
	stepSaleComment

	stepExpenseReason
	stepExpenseAmount
	stepExpenseComment

	stepCashAmount

	stepSearchQuery
	stepSearchRange
)

// session is the per-chat form state. A non-zero saleID or expenseID
// marks an edit flow; the terminal step then updates instead of creating.
type session struct {
	kind flowKind
	step int

	sale   api.SaleRequest
	saleID int64

	expense   api.ExpenseRequest
	expenseID int64

	query string
}

// sessions tracks one active session per chat. Starting a new flow
// overwrites whatever was in progress; there is no timeout.
type sessions struct {
	mu     sync.Mutex
	active map[int64]*session
}

func newSessions() *sessions {
	return &sessions{active: make(map[int64]*session)}
}

func (s *sessions) start(chatID int64, kind flowKind, step int) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &session{kind: kind, step: step}
	s.active[chatID] = sess
	return sess
}

func (s *sessions) get(chatID int64) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.active[chatID]
	return sess, ok
}

func (s *sessions) clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, chatID)
}
