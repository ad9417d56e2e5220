package sheets

import (
	"context"

	"expenses/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerReader returns the expense transactions of a Settle Up export.
	// Transfers are already filtered out.
	LedgerReader interface {
		ReadLedger(ctx context.Context) ([]core.Transaction, error)
	}

	// ShareWriter persists one user's reshaped shares.
	ShareWriter interface {
		WriteShares(ctx context.Context, user string, shares []core.Share) (ref string, err error)
	}

	// EntryReader lists the rows of the expenses workbook.
	EntryReader interface {
		ListEntries(ctx context.Context) ([]core.Entry, error)
	}

	// EntryWriter replaces every entry previously imported from source.
	EntryWriter interface {
		ReplaceEntries(ctx context.Context, source string, entries []core.Entry) (ref string, err error)
	}
)
