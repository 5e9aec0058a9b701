// Platewise | 2026
// errors.go

package core

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrLastManager guards the roster invariant: an active establishment
	// must keep at least one active manager.
	ErrLastManager = errors.New("cannot remove the last manager")

	ErrPlanLimit = errors.New("plan limit reached")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrTokenInvalid = errors.New("token invalid")
)

type AppError struct {
	Err     error
	Message string
	Status  int
	Code    string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Status:  status,
		Code:    code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, 401, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, 403, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrNotFound, resource+" not found", 404, "NOT_FOUND")
}

func InvalidInputError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, 400, "INVALID_INPUT")
}

func LastManagerError() *AppError {
	return NewAppError(
		ErrLastManager,
		"cannot demote or remove the last manager of an establishment",
		400,
		"LAST_MANAGER",
	)
}

func PlanLimitError(message string) *AppError {
	return NewAppError(ErrPlanLimit, message, 403, "PLAN_LIMIT")
}

func DuplicateError(field string) *AppError {
	return NewAppError(ErrDuplicateKey, field+" already exists", 409, "DUPLICATE")
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "access token expired", 401, "TOKEN_EXPIRED")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "access token revoked", 401, "TOKEN_REVOKED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "access token invalid", 401, "TOKEN_INVALID")
}
