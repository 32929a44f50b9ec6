package errors

import (
	stderrors "errors"
	"fmt"
)

const (
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeInvalidReq    = "INVALID_REQUEST"
	ErrCodeInvalidConfig = "INVALID_CONFIG"
	ErrCodeGeminiAPI     = "GEMINI_API_ERROR"
	ErrCodeImageGenAPI   = "IMAGE_GEN_API_ERROR"
	ErrCodeCredential    = "CREDENTIAL_ERROR"
	ErrCodeNoImage       = "NO_IMAGE"
	ErrCodeMalformed     = "MALFORMED_RESPONSE"
	ErrCodeBundle        = "BUNDLE_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeRunInProgress = "RUN_IN_PROGRESS"
)

// ErrorKind is the taxonomy the orchestrator reacts to.
type ErrorKind int

const (
	KindService ErrorKind = iota
	KindCredential
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindValidation:
		return "validation"
	default:
		return "service"
	}
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Credential builds the error used both by the readiness gate and by the
// remote adapters when the service rejects the key.
func Credential(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeCredential,
		Message: message,
		Cause:   cause,
	}
}

func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func Is(err error, code string) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

func Code(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

func Kind(err error) ErrorKind {
	switch Code(err) {
	case ErrCodeCredential:
		return KindCredential
	case ErrCodeInvalidReq, ErrCodeInvalidConfig, ErrCodeNotFound, ErrCodeRunInProgress:
		return KindValidation
	default:
		return KindService
	}
}

func IsCredential(err error) bool {
	return err != nil && Kind(err) == KindCredential
}
