package http

import (
	"net/http"

	"github.com/go-chi/render"

	apperrors "csviz/internal/errors"
	"csviz/internal/middleware"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusForError maps application error types to HTTP status codes.
func statusForError(err error) int {
	switch {
	case apperrors.IsType(err, apperrors.ErrTypeNotFound):
		return http.StatusNotFound
	case apperrors.IsType(err, apperrors.ErrTypeValidation):
		return http.StatusBadRequest
	case apperrors.IsType(err, apperrors.ErrTypeNoData):
		return http.StatusUnprocessableEntity
	case apperrors.IsType(err, apperrors.ErrTypeParsing):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// renderError writes err as a JSON error response.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	render.Status(r, status)
	render.JSON(w, r, errorResponse{
		Error:     http.StatusText(status),
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// badRequest writes a validation failure for a malformed query parameter.
func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	renderError(w, r, apperrors.NewValidationError(message))
}
