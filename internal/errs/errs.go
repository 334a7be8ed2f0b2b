// Package errs carries the coded errors used across the exporter. The code
// identifies which stage failed; the cause chain keeps the underlying error
// reachable through errors.Is / errors.As.
package errs

import "fmt"

// Error codes, one per failure stage.
const (
	CodeConfigInvalid  = "CONFIG_INVALID"
	CodeAPIError       = "API_ERROR"
	CodeDataProcessing = "DATA_PROCESSING"
	CodeExportFailed   = "EXPORT_FAILED"
	CodeInternal       = "INTERNAL_ERROR"
)

// Error is a coded application error.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error with an explicit code.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with an explicit code and a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap adds context to an error. The code of an already-coded error is
// preserved; anything else becomes INTERNAL_ERROR.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := CodeInternal
	if coded, ok := err.(*Error); ok {
		code = coded.Code
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf adds formatted context to an error.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode wraps err under the given code.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error(), Cause: err}
}

// Code returns the error's code, walking the cause chain, or UNKNOWN.
func Code(err error) string {
	for err != nil {
		if coded, ok := err.(*Error); ok {
			return coded.Code
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return "UNKNOWN"
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && Code(err) == code
}

// ConfigInvalid builds a CONFIG_INVALID error.
func ConfigInvalid(message string) *Error {
	return New(CodeConfigInvalid, message)
}

// APIError builds an API_ERROR error.
func APIError(message string) *Error {
	return New(CodeAPIError, message)
}

// DataProcessing builds a DATA_PROCESSING error.
func DataProcessing(message string) *Error {
	return New(CodeDataProcessing, message)
}

// ExportFailed builds an EXPORT_FAILED error.
func ExportFailed(message string) *Error {
	return New(CodeExportFailed, message)
}
