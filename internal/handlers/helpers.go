package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// maxErrorMessageLen caps client-visible error detail
const maxErrorMessageLen = 200

type apiEnvelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// respondJSON sends a success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, apiEnvelope{
		Success: true,
		Data:    data,
	})
}

// respondJSONError sends an error envelope with a truncated message
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeEnvelope(w, status, apiEnvelope{
		Success: false,
		Error:   errorType,
		Message: sanitizeErrorMessage(message),
	})
}

func writeEnvelope(w http.ResponseWriter, status int, env apiEnvelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLen {
		message = message[:maxErrorMessageLen] + "..."
	}
	return message
}
