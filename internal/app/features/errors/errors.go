// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Status maps an error to its HTTP status.
//
//	validation                     → 400
//	forbidden                      → 403
//	not found                      → 404
//	insufficient fund/stock, retry → 409
//	anything else                  → 500
func Status(err error) int {
	var ve *apperr.ValidationError
	switch {
	case stderrors.As(err, &ve):
		return http.StatusBadRequest
	case stderrors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, apperr.ErrInsufficientFund),
		stderrors.Is(err, apperr.ErrInsufficientStock),
		stderrors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteJSON writes err as a JSON error response. Internal errors are logged
// and their text is not sent to the client.
func WriteJSON(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := Status(err)
	body := errorBody{Error: err.Error()}

	var ve *apperr.ValidationError
	if stderrors.As(err, &ve) {
		body = errorBody{Error: ve.Message, Field: ve.Field}
	}
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
		body = errorBody{Error: "internal error"}
	}
	JSON(w, status, body)
}

// Handler serves the router's fallback responses.
// No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusNotFound, errorBody{Error: "no such route"})
}

// MethodNotAllowed answers a known route hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
}
