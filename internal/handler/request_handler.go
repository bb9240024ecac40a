package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/suar-net/suar-api/internal/model"
	"github.com/suar-net/suar-api/internal/service"
)

type RequestHandler struct {
	executor service.IExecutorService
	logger   *logrus.Logger
}

func NewRequestHandler(s service.IExecutorService, l *logrus.Logger) *RequestHandler {
	return &RequestHandler{
		executor: s,
		logger:   l,
	}
}

// transportFailure is the body returned when the target never answered.
type transportFailure struct {
	Success      bool   `json:"success"`
	Error        string `json:"error"`
	ResponseTime int64  `json:"responseTime"`
}

// Execute sends the described request to its target and records the attempt.
func (h *RequestHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var dto model.DTORequest
	if !decodeJSON(w, r, &dto) {
		return
	}

	if err := validate.Struct(&dto); err != nil {
		respondWithValidationError(w, ValidationError(err))
		return
	}

	// r.Context() carries request-scoped values; the executor detaches from its cancellation.
	dtoResponse, err := h.executor.Execute(r.Context(), &dto)
	if err != nil {
		var transportErr *service.TransportError
		switch {
		case errors.As(err, &transportErr):
			code := http.StatusBadGateway
			if errors.Is(err, service.ErrRequestTimeout) {
				code = http.StatusGatewayTimeout
			}
			respondWithJson(w, code, transportFailure{
				Error:        transportErr.Error(),
				ResponseTime: transportErr.ResponseTime,
			})
		case errors.Is(err, service.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.WithError(err).Error("Execute failed")
			respondWithError(w, http.StatusInternalServerError, "An internal error occurred")
		}
		return
	}

	respondWithJson(w, http.StatusOK, dtoResponse)
}

// decodeJSON reads the request body into dst and reports malformed or
// oversized payloads. It returns false when a response was already written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		respondWithError(w, http.StatusRequestEntityTooLarge, "Request entity too large")
		return false
	}
	respondWithError(w, http.StatusBadRequest, "Invalid JSON")
	return false
}
