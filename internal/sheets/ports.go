package sheets

import (
	"context"

	"budgetly/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionMirror appends transactions to an external spreadsheet,
	// one tab per kind.
	TransactionMirror interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)

// Header is the column layout of every mirror tab.
var Header = []string{"Date", "Title", "Category", "Amount", "Description", "ID"}

// Row renders t in Header order. The amount is a plain decimal string so
// the spreadsheet parses it as a number.
func Row(t core.Transaction) []any {
	return []any{
		t.Date.String(),
		t.Title,
		t.Category,
		t.Amount.StringFixed(2),
		t.Description,
		t.ID.String(),
	}
}
