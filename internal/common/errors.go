package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden access")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict") // e.g. duplicate email or handle
	ErrInternalServer = errors.New("internal server error")

	ErrSyncFailure       = errors.New("external platform sync failed")
	ErrRemindersDisabled = errors.New("email reminders are disabled for this student")
	ErrReminderCooldown  = errors.New("a reminder was already sent within the cooldown window")
	ErrSendFailure       = errors.New("failed to send email")
	ErrTimeout           = errors.New("request timed out")
	ErrBatchInProgress   = errors.New("a reminder batch is already running")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrBatchInProgress) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRemindersDisabled) || errors.Is(err, ErrReminderCooldown) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrSyncFailure) || errors.Is(err, ErrSendFailure) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrTimeout) {
		return http.StatusGatewayTimeout
	}

	// Check for pgx specific errors (example for unique constraint)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}
