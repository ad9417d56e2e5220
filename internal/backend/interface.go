package backend

import (
	"context"

	"expenses/internal/amqp"
	"expenses/internal/sheets"
	"expenses/internal/storage"
)

// Backend is the entry store behind the dashboard and the plot worker.
type Backend interface {
	sheets.EntryReader
	sheets.EntryWriter
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and the optional services
// that came up with it.
type BackendResult struct {
	Backend Backend
	// Imports is set for the sqlite backend only.
	Imports *storage.SQLiteRepository
	// Publisher is set when an AMQP URL is configured and the broker was
	// reachable.
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	XLSXBackend   BackendType = "xlsx"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case XLSXBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
