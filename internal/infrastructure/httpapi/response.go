package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/provpack/internal/application/handlers"
	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/ports"
)

// APIError is the body of every error response.
type APIError struct {
	Message    string               `json:"message"`
	Code       string               `json:"code,omitempty"`
	Violations []entities.Violation `json:"violations,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes an error envelope.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	apiErr := APIError{Message: msg, Code: code}

	var ve *entities.ValidationError
	var re *entities.ReferentialError
	switch {
	case errors.As(err, &ve):
		apiErr.Violations = ve.Violations
	case errors.As(err, &re):
		apiErr.Violations = re.Violations
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

// RespondOK writes payload as JSON with status 200.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondDomainError maps a handler error to its HTTP status.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entities.ErrInvalidInput):
		RespondError(c, http.StatusUnprocessableEntity, "invalid_input", err)
	case errors.Is(err, entities.ErrMissingRequiredField):
		RespondError(c, http.StatusUnprocessableEntity, "missing_field", err)
	case errors.Is(err, entities.ErrReferentialViolation):
		RespondError(c, http.StatusUnprocessableEntity, "referential_violation", err)
	case errors.Is(err, entities.ErrCaseNotFound):
		RespondError(c, http.StatusNotFound, "case_not_found", err)
	case errors.Is(err, ports.ErrPageNotFound):
		RespondError(c, http.StatusNotFound, "page_not_found", err)
	case errors.Is(err, handlers.ErrEmptyReference):
		RespondError(c, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, entities.ErrPersistence):
		RespondError(c, http.StatusInternalServerError, "persistence_failure", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
