package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes a JSON response body.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// RespondMessage writes the {"message": ...} body shape the site frontend
// expects for both validation failures and generic server errors.
func RespondMessage(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"message": message})
}
