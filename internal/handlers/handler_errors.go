package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/finpost/gl_engine_app/internal/apperrors"
	"github.com/finpost/gl_engine_app/internal/core/services"
	"github.com/go-playground/validator/v10"
)

// bindErrorMessage turns a request binding failure into a client-facing
// message. Field validation failures are reported per field and rule so the
// caller can tell which value was rejected.
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("field '%s' failed on '%s'", fe.Field(), fe.Tag()))
		}
		return "Invalid request: " + strings.Join(parts, "; ")
	}
	return "Invalid request format"
}

// statusForError maps domain and application errors onto HTTP statuses.
// Handlers fall back to 500 with a generic message so internals never leak.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrParentNotFound),
		errors.Is(err, services.ErrNoPeriodForDate):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, services.ErrDescriptionMissing),
		errors.Is(err, services.ErrNormalSideMismatch):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, services.ErrEntryUnbalanced),
		errors.Is(err, services.ErrEntryMinLines):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, services.ErrEntryNotDraft),
		errors.Is(err, services.ErrEntryNotPosted),
		errors.Is(err, services.ErrEntryAlreadyReversed),
		errors.Is(err, services.ErrEntryIsReversal),
		errors.Is(err, services.ErrEntryInBatch),
		errors.Is(err, services.ErrEntryAlreadyBatched),
		errors.Is(err, services.ErrEntryNotInBatch),
		errors.Is(err, services.ErrPeriodOverlap),
		errors.Is(err, services.ErrPeriodClosed),
		errors.Is(err, services.ErrPeriodAlreadyClosed),
		errors.Is(err, services.ErrPeriodAlreadyOpen),
		errors.Is(err, services.ErrAccountInactive),
		errors.Is(err, services.ErrAccountActive),
		errors.Is(err, services.ErrAccountHasBalance),
		errors.Is(err, services.ErrAccountHasDrafts),
		errors.Is(err, services.ErrBatchEmpty),
		errors.Is(err, services.ErrBatchNotEmpty),
		errors.Is(err, services.ErrBatchNotOpen),
		errors.Is(err, services.ErrBatchTransition),
		errors.Is(err, services.ErrBatchAlreadyReversed):
		return http.StatusConflict, err.Error()

	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}
