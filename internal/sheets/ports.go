// Package sheets defines the outbound port used to mirror transactions into
// a spreadsheet ledger.
package sheets

import (
	"context"

	"financy/internal/core"
)

// LedgerWriter appends one transaction row and returns the written range.
type LedgerWriter interface {
	AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
