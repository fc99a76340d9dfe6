package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"kiosk-pos/internal/model"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent
		return
	}
}

// writeError writes an error body tagged with the request's correlation id.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
}

// writeDomainError maps err to an HTTP status. Errors outside the domain
// taxonomy are logged and hidden behind a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	status := statusFor(de)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", de.Code).Msg("request failed")
	} else {
		logger.Debug().Str("code", de.Code).Str("message", de.Message).Msg("request rejected")
	}
	writeError(w, r, status, de.Code, de.Message)
}

func statusFor(de *model.DomainError) int {
	switch de.Kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		// A product reference that does not resolve is a bad order, not a
		// missing resource.
		if de.Code == model.ErrCodeProductNotFound {
			return http.StatusUnprocessableEntity
		}
		return http.StatusNotFound
	case model.KindInsufficientStock, model.KindConflict:
		return http.StatusConflict
	case model.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
