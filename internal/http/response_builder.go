// Package http serves the expenses dashboard.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Events sent to the page through the HX-Trigger header.
const (
	eventEntriesImported = "entries:imported"
	eventNotification    = "show-notification"
)

// NotificationType selects the style of a toast in app.js.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

const (
	successToastMs = 3000
	errorToastMs   = 5000
)

// HTMXResponseBuilder assembles a response with its HX-Trigger events.
type HTMXResponseBuilder struct {
	status  int
	headers http.Header
	events  map[string]any
	body    []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:  http.StatusOK,
		headers: http.Header{},
		events:  map[string]any{},
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger queues an event; a later trigger of the same name replaces it.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	b.events[name] = detail
	return b
}

// TriggerEntriesImported tells panels showing stored entries to reload.
func (b *HTMXResponseBuilder) TriggerEntriesImported(ref string, rows int) *HTMXResponseBuilder {
	return b.Trigger(eventEntriesImported, map[string]any{"ref": ref, "rows": rows})
}

func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(eventNotification, map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, successToastMs)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, errorToastMs)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

func (b *HTMXResponseBuilder) BodyString(s string) *HTMXResponseBuilder {
	b.body = []byte(s)
	return b
}

func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	return b.BodyString(html)
}

// Write sends headers, events, status and body, in that order. Events that
// cannot be encoded are dropped.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		w.Header()[name] = values
	}
	if len(b.events) > 0 {
		if raw, err := json.Marshal(b.events); err == nil {
			w.Header().Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse wraps an escaped message in the error box used by the pages.
func ErrorResponse(code int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(code).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
