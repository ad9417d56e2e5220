package services

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/core"
	"expenses/internal/settleup"
	"expenses/internal/sheets"
)

// SettleUpService turns a Settle Up ledger into one user's expense rows.
type SettleUpService struct {
	ledger      sheets.LedgerReader
	shares      sheets.ShareWriter
	checkTotals bool
}

// NewSettleUpService creates the service. ledger and shares may be nil when
// only Reshape is used.
func NewSettleUpService(ledger sheets.LedgerReader, shares sheets.ShareWriter, checkTotals bool) *SettleUpService {
	return &SettleUpService{ledger: ledger, shares: shares, checkTotals: checkTotals}
}

// SettleUpResult is the outcome of reshaping a ledger for one user.
type SettleUpResult struct {
	User       string
	Shares     []core.Share
	Split      *settleup.Split
	Mismatches []settleup.Mismatch
	Ref        string
}

// Process reads the ledger, reshapes it for user and writes the shares.
func (s *SettleUpService) Process(ctx context.Context, user string) (*SettleUpResult, error) {
	txs, err := s.ledger.ReadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	slog.InfoContext(ctx, "Ledger loaded", "rows", len(txs))

	res, err := s.Reshape(ctx, txs, user)
	if err != nil {
		return nil, err
	}

	ref, err := s.shares.WriteShares(ctx, user, res.Shares)
	if err != nil {
		return nil, fmt.Errorf("write shares: %w", err)
	}
	res.Ref = ref
	slog.InfoContext(ctx, "Shares written", "user", user, "rows", len(res.Shares), "ref", ref)
	return res, nil
}

// Reshape computes the split of txs and extracts user's shares. When total
// checking is enabled, transactions whose split amounts do not add up are
// logged and returned, never rejected.
func (s *SettleUpService) Reshape(ctx context.Context, txs []core.Transaction, user string) (*SettleUpResult, error) {
	split, err := settleup.Compute(txs)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	shares, err := split.Shares(user)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}

	res := &SettleUpResult{User: user, Shares: shares, Split: split}
	if s.checkTotals {
		res.Mismatches = split.CheckTotals(settleup.DefaultTolerance)
		for _, m := range res.Mismatches {
			slog.WarnContext(ctx, "Split amounts do not add up",
				"row", m.Row,
				"purpose", m.Purpose,
				"total", m.Total.StringFixed(2),
				"split", m.Split.StringFixed(2))
		}
	}
	return res, nil
}
