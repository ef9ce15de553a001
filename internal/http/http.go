// Package http holds response helpers shared by the handler packages.
package http

import (
	"encoding/json"
	"html"
	"net/http"

	"finanzas/internal/log"
	"finanzas/internal/templates"
)

// HTMX request and response headers
const (
	HeaderHXRequest = "HX-Request"
	HeaderHXTrigger = "HX-Trigger"

	// EventLedgerChanged is fired after any change to the transaction set so
	// that the summary, chart and list panels refresh themselves.
	EventLedgerChanged = "ledger-changed"
	// EventAdvisorReset tells the advisor panel to re-render in its idle state
	EventAdvisorReset = "advisor-reset"
	// EventNotify carries a user-facing message
	EventNotify = "notify"
)

// RenderTemplate renders a full page template with data
func RenderTemplate(w http.ResponseWriter, r *http.Request, renderer *templates.Renderer, templateName string, data map[string]any) {
	if renderer == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><h1>" + html.EscapeString(templateName) + "</h1><p>Plantillas no cargadas. Revisa la configuración.</p></body></html>"))
		return
	}
	if err := renderer.Render(w, templateName, data); err != nil {
		log.FromContext(r.Context()).Error("page render failed", "template", templateName, log.FieldError, err)
	}
}

// RenderPartial renders a partial template with data
func RenderPartial(w http.ResponseWriter, r *http.Request, renderer *templates.Renderer, partialName string, data map[string]any) {
	if renderer == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<div><!-- Partial " + html.EscapeString(partialName) + " not loaded --></div>"))
		return
	}
	if err := renderer.Render(w, partialName, data); err != nil {
		log.FromContext(r.Context()).Error("partial render failed", "template", partialName, log.FieldError, err)
	}
}

// WriteJSON sends v as a JSON response
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse logs and sends an error response. htmx does not swap error
// bodies, so htmx requests also get the message as a notify event.
func ErrorResponse(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	log.FromContext(r.Context()).Warn("request failed", "message", message, log.FieldStatusCode, statusCode)
	if IsHTMX(r) {
		Triggers{}.Notify("error", message).Apply(w)
	}
	http.Error(w, message, statusCode)
}

// IsHTMX reports whether the request came from htmx
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// Triggers collects HX-Trigger events for a response
type Triggers map[string]any

// Trigger adds an event without detail
func (t Triggers) Trigger(event string) Triggers {
	t[event] = nil
	return t
}

// Notify adds a notify event with a message and a level
func (t Triggers) Notify(level, message string) Triggers {
	t[EventNotify] = map[string]string{"level": level, "message": message}
	return t
}

// Apply writes the HX-Trigger header. Must be called before WriteHeader.
func (t Triggers) Apply(w http.ResponseWriter) {
	if len(t) == 0 {
		return
	}
	b, err := json.Marshal(map[string]any(t))
	if err != nil {
		return
	}
	w.Header().Set(HeaderHXTrigger, string(b))
}

// LedgerChanged is the trigger set sent after a mutation
func LedgerChanged() Triggers {
	return Triggers{}.Trigger(EventLedgerChanged)
}
