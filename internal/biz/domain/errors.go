package domain

import "errors"

// Validation errors are raised before any external I/O happens.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidToken      = errors.New("invalid token")
)

// Upstream and engine errors
var (
	ErrDownload           = errors.New("file download failed")
	ErrEngineFailed       = errors.New("conversion engine failed")
	ErrConverterRejected  = errors.New("converter rejected request")
	ErrBindingUnavailable = errors.New("chat binding is not available")
	ErrUnknownAnswerType  = errors.New("unknown answer type")
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("not found")

// Wire codes used in HTTP error bodies
const (
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeEngineFailed      = "ENGINE_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrUnsupportedFormat, CodeUnsupportedFormat},
	{ErrFileTooLarge, CodeFileTooLarge},
	{ErrNotFound, CodeNotFound},
	{ErrInvalidToken, CodeNotFound},
	{ErrEngineFailed, CodeEngineFailed},
}

// ErrorCode maps an error to its wire code
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternalError
}

// ErrorFromCode maps a wire code back to its sentinel error, or nil
func ErrorFromCode(code string) error {
	for _, ec := range errorCodes {
		if ec.code == code {
			return ec.err
		}
	}
	return nil
}
