package promotion

import (
	"encoding/json"
	"net/http"
)

const (
	msgForbidden  = "Forbidden: Invalid API Key"
	msgBadRequest = "Bad Request: userIds must be an array of numbers"
	msgInternal   = "Internal Server Error"
	msgTooLarge   = "Payload Too Large"
	msgResults    = "Promotion results"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
