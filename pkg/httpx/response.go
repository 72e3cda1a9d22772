package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the stable machine-readable error body the gateway emits
// for failures it generates itself (as opposed to backend responses, which are
// passed through untouched).
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a gateway-generated error body with the given status code.
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	NoCache(w)
	WriteJSON(w, code, ErrorResponse{Error: errCode, Message: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for responses that may carry credentials.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
