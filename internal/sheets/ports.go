// Package sheets defines the outbound port for the journal export.
package sheets

import "context"

// JournalRow is one exported ledger line. Amount is a formatted decimal
// string so the spreadsheet shows exactly what the ledger stored.
type JournalRow struct {
	Timestamp   string
	Kind        string
	EntityID    int64
	Description string
	Amount      string
	Method      string
	Date        string
}

type JournalAppender interface {
	AppendRow(ctx context.Context, row JournalRow) error
}
