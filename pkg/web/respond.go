// Package web holds the JSON response envelope shared by all HTTP handlers.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storeflow/storefront/pkg/apperr"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps the error taxonomy to status codes. Unclassified errors
// are logged and rendered as an opaque 500.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		log.Error("unhandled error", "err", err)
		WriteJSON(w, http.StatusInternalServerError, errorBody{Kind: "internal", Message: "internal server error"})
		return
	}
	WriteJSON(w, status(e.Kind), errorBody{Kind: string(e.Kind), Message: e.Message})
}

func status(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInsufficientStock, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindGateway:
		return http.StatusBadGateway
	case apperr.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
