package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/sheets"
	"expenses/internal/storage"
)

// ImportLookup resolves the import a render request refers to.
type ImportLookup interface {
	GetImport(ctx context.Context, id string) (storage.Import, error)
}

// Renderer draws the charts of some years; every year when years is empty.
type Renderer interface {
	RenderAll(ctx context.Context, entries []core.Entry, years []int) ([]string, error)
}

// RenderWorker redraws plots when entries change.
type RenderWorker struct {
	entries  sheets.EntryReader
	imports  ImportLookup
	renderer Renderer
}

// NewRenderWorker creates a worker. imports may be nil when the entry
// source does not record imports.
func NewRenderWorker(entries sheets.EntryReader, imports ImportLookup, renderer Renderer) *RenderWorker {
	return &RenderWorker{entries: entries, imports: imports, renderer: renderer}
}

// HandleRenderRequest processes a single render request from AMQP. A request
// for an import that no longer exists is acknowledged without rendering.
func (w *RenderWorker) HandleRenderRequest(ctx context.Context, msg *amqp.RenderRequest) error {
	slog.InfoContext(ctx, "Processing render request",
		"import_id", msg.ImportID,
		"years", msg.Years,
		"requested_at", msg.Timestamp)

	if w.imports != nil && msg.ImportID != "" {
		imp, err := w.imports.GetImport(ctx, msg.ImportID)
		if errors.Is(err, storage.ErrImportNotFound) {
			slog.WarnContext(ctx, "Import not found, skipping render", "import_id", msg.ImportID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get import: %w", err)
		}
		slog.DebugContext(ctx, "Render for import", "source", imp.Source, "rows", imp.RowCount)
	}
	return w.render(ctx, msg.Years)
}

// StartupRender draws every year once, so plots exist before the first
// import message arrives.
func (w *RenderWorker) StartupRender(ctx context.Context) error {
	return w.render(ctx, nil)
}

func (w *RenderWorker) render(ctx context.Context, years []int) error {
	entries, err := w.entries.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	if len(entries) == 0 {
		slog.InfoContext(ctx, "No entries to render")
		return nil
	}
	files, err := w.renderer.RenderAll(ctx, entries, years)
	if err != nil {
		return fmt.Errorf("render plots: %w", err)
	}
	slog.InfoContext(ctx, "Plots rendered", "files", len(files), "years", years)
	return nil
}
