package httputil

import "net/http"

// Envelope statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Envelope is the generic success wrapper. Pure data, no behavior: handlers
// decide what goes in Data.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ListEnvelope wraps collection responses with their total count.
type ListEnvelope struct {
	Status string `json:"status"`
	Items  any    `json:"items"`
	Total  int    `json:"total"`
}

// WriteData writes a success envelope around data.
func WriteData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Status: StatusOK, Data: data})
}

// WriteMessage writes a success envelope with a message and no data.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Status: StatusOK, Message: message})
}

// WriteList writes a collection envelope. Total is the full collection size,
// which may exceed len(items) when the handler paginates.
func WriteList(w http.ResponseWriter, status int, items any, total int) {
	writeJSON(w, status, ListEnvelope{Status: StatusOK, Items: items, Total: total})
}

// WriteJSON writes v verbatim for handlers that need a bespoke shape.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v)
}
