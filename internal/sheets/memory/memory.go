// Package memory is an in-memory journal, used in tests and when the
// worker runs without Google credentials.
package memory

import (
	"context"
	"sync"

	"kassa/internal/sheets"
)

type Journal struct {
	mu   sync.Mutex
	rows []sheets.JournalRow
}

var _ sheets.JournalAppender = (*Journal)(nil)

func New() *Journal {
	return &Journal{}
}

func (j *Journal) AppendRow(_ context.Context, row sheets.JournalRow) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (j *Journal) Rows() []sheets.JournalRow {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]sheets.JournalRow, len(j.rows))
	copy(out, j.rows)
	return out
}
