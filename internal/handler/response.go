package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// errorResponse is the body of every failed call.
type errorResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// respondWithError sends {"success": false, "error": message}.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJson(w, code, errorResponse{Error: message})
}

// respondWithValidationError reports field-level validation failures.
func respondWithValidationError(w http.ResponseWriter, details []FieldError) {
	respondWithJson(w, http.StatusBadRequest, errorResponse{
		Error:   "Validation error",
		Details: details,
	})
}

// respondWithJson marshals payload and writes it with the given status code.
func respondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	dat, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(dat)
}
