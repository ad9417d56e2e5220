package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/analysis"
	"expenses/internal/core"
	"expenses/internal/sheets"
)

// ErrNoEntries is returned when an import carries no rows.
var ErrNoEntries = errors.New("no entries to import")

// ImportService stores a batch of entries and asks the plot worker to redraw
// the affected years.
type ImportService struct {
	writer    sheets.EntryWriter
	publisher amqp.Publisher
}

// NewImportService creates the service. publisher may be nil, in which case
// no render job is published.
func NewImportService(writer sheets.EntryWriter, publisher amqp.Publisher) *ImportService {
	return &ImportService{writer: writer, publisher: publisher}
}

// ImportResult describes a stored batch.
type ImportResult struct {
	Ref       string
	Rows      int
	Years     []int
	Published bool
}

// Import replaces the entries of source and publishes a render request.
// A failed publish is logged; the entries are already stored.
func (s *ImportService) Import(ctx context.Context, source string, entries []core.Entry) (*ImportResult, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	ref, err := s.writer.ReplaceEntries(ctx, source, entries)
	if err != nil {
		return nil, fmt.Errorf("save entries: %w", err)
	}

	res := &ImportResult{Ref: ref, Rows: len(entries), Years: analysis.Years(entries)}
	if err := s.publishRenderRequest(ctx, ref, res.Years); err != nil {
		slog.ErrorContext(ctx, "Failed to publish render request",
			"ref", ref, "error", err)
		return res, nil
	}
	res.Published = s.publisher != nil
	return res, nil
}

func (s *ImportService) publishRenderRequest(ctx context.Context, ref string, years []int) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping render request")
		return nil
	}
	return s.publisher.PublishRenderRequest(ctx, amqp.NewRenderRequest(ref, years))
}
