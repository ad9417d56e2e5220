package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"expenses/internal/analysis"
	"expenses/internal/core"
	"expenses/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that entries can be loaded and the backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	if s.opts.Ready != nil {
		if err := s.opts.Ready(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	if entries, err := s.loadEntries(ctx); err != nil {
		checks["entries"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["entries"] = len(entries)
	}

	checks["uploads_cached"] = s.uploads.Size()
	checks["rate_limiter"] = s.limiter.GetMetrics()
	checks["requests"] = s.tracer.GetMetrics()
	checks["suspicious_requests"] = s.detector.GetMetrics().SuspiciousRequests

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type summaryRow struct {
	Year                       int
	Ingress, Expenses, Savings string
	Negative                   bool
}

// handleIndex renders the yearly Ingress, Expenses and Savings summary.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		pageData
		Rows []summaryRow
	}{pageData: pageData{Title: "Summary", Page: "summary"}}

	entries, err := s.loadEntries(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary load failed", log.FieldError, err)
		data.Error = errLoadEntries
		s.render(w, r, http.StatusInternalServerError, "index.html", "", data)
		return
	}

	for _, y := range analysis.Summary(entries) {
		data.Rows = append(data.Rows, summaryRow{
			Year:     y.Year,
			Ingress:  core.FormatEuros(y.Ingress),
			Expenses: core.FormatEuros(y.Expenses),
			Savings:  core.FormatEuros(y.Savings),
			Negative: y.Savings.IsNegative(),
		})
	}
	s.render(w, r, http.StatusOK, "index.html", "", data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
