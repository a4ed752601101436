package errors

import "fmt"

type ErrorCode string

const (
	ErrInternalServer             ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrInvalidInput               ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData         ErrorCode = "INVALID_REQUEST_DATA"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrAlreadyExists              ErrorCode = "ALREADY_EXISTS"
	ErrForbidden                  ErrorCode = "FORBIDDEN"
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"

	// Scheduling-engine codes. ErrCommitFailed covers transient store
	// failures during a commit; ErrExternalProvider covers Google API
	// failures (rate limit, expired credential) and is surfaced distinctly
	// so callers can tell the two apart.
	ErrCommitFailed     ErrorCode = "COMMIT_FAILED"
	ErrExternalProvider ErrorCode = "EXTERNAL_PROVIDER_ERROR"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf returns the AppError code carried by err, or ErrInternalServer
// when err is not an AppError.
func CodeOf(err error) ErrorCode {
	if ae, ok := err.(*AppError); ok && ae != nil {
		return ae.Code
	}
	return ErrInternalServer
}
