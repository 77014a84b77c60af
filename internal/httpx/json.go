// Package httpx holds the response envelope and error vocabulary shared by
// all HTTP handlers. Auth responses are never cacheable.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Time  string `json:"time"`
	Error any    `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	write(w, status, envelope{Data: v})
}

func WriteError[T any](w http.ResponseWriter, status int, errBody ErrorResponse[T]) {
	write(w, status, envelope{Error: errBody})
}

func write(w http.ResponseWriter, status int, e envelope) {
	e.Time = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(e)
}
