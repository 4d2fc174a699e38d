package handler

import (
	"encoding/json"
	"net/http"

	"github.com/examforge/examforge/internal/policy"
)

// Identity headers. Authentication itself is handled upstream; these
// carry the verified identity into the service.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// identity extracts the caller's user id and role from request headers
func identity(r *http.Request) (string, policy.Role) {
	return r.Header.Get(HeaderUserID), policy.ParseRole(r.Header.Get(HeaderRole))
}
