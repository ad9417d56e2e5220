package memory

import (
	"context"
	"fmt"
	"sync"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
)

var (
	_ ports.LedgerReader = (*Store)(nil)
	_ ports.ShareWriter  = (*Store)(nil)
	_ ports.EntryReader  = (*Store)(nil)
	_ ports.EntryWriter  = (*Store)(nil)
)

// Store keeps everything in process. Used by tests and by the dashboard
// when no persistent backend is configured.
type Store struct {
	mu      sync.Mutex
	ledger  []core.Transaction
	shares  map[string][]core.Share
	entries map[string][]core.Entry
	sources []string
}

func New(ledger []core.Transaction, entries []core.Entry) *Store {
	s := &Store{
		ledger:  append([]core.Transaction(nil), ledger...),
		shares:  map[string][]core.Share{},
		entries: map[string][]core.Entry{},
	}
	if len(entries) > 0 {
		s.entries["seed"] = append([]core.Entry(nil), entries...)
		s.sources = append(s.sources, "seed")
	}
	return s
}

func (s *Store) ReadLedger(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.ledger...), nil
}

// WriteShares appends the shares of user and returns a synthetic reference.
func (s *Store) WriteShares(_ context.Context, user string, shares []core.Share) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares[user] = append(s.shares[user], shares...)
	return fmt.Sprintf("mem:%s:%d", user, len(s.shares[user])), nil
}

// Shares returns what was written for user.
func (s *Store) Shares(user string) []core.Share {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Share(nil), s.shares[user]...)
}

// ListEntries returns the entries of every source in import order.
func (s *Store) ListEntries(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entry
	for _, src := range s.sources {
		out = append(out, s.entries[src]...)
	}
	return out, nil
}

func (s *Store) ReplaceEntries(_ context.Context, source string, entries []core.Entry) (string, error) {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[source]; !ok {
		s.sources = append(s.sources, source)
	}
	s.entries[source] = append([]core.Entry(nil), entries...)
	return fmt.Sprintf("mem:%s:%d", source, len(entries)), nil
}
