// Package errs defines the categorized error type shared by the conversion
// packages and the HTTP layer.
//
// Library packages wrap their failures with a Category so the server can
// decide on a status code without string matching:
//
//	if err := pdf.Rotate(ctx, in, out, 45); err != nil {
//	    errs.IsCategory(err, errs.CategoryInput) // true: bad rotation
//	}
//
// Only CategoryInput maps to a 400-class status. Every other category is a
// processing failure and maps to 500.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies an error for status mapping and logging.
type Category string

const (
	CategoryInput       Category = "input"
	CategoryDecode      Category = "decode"
	CategoryEncode      Category = "encode"
	CategoryPDF         Category = "pdf"
	CategoryStorage     Category = "storage"
	CategoryUnavailable Category = "unavailable"
)

// Error is the structured error type used throughout the module.
type Error struct {
	Category Category
	Op       string // operation name, e.g. "pdf.split"
	Err      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error.
func New(category Category, op string, err error) *Error {
	return &Error{Category: category, Op: op, Err: err}
}

// Wrap wraps err with a category and operation. It returns nil for a nil err
// and leaves an already categorized error untouched.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return New(category, op, err)
}

// Invalid creates an input validation error with a formatted message.
// The message is what the client sees, so Op is left empty.
func Invalid(format string, args ...interface{}) *Error {
	return &Error{Category: CategoryInput, Err: fmt.Errorf(format, args...)}
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == cat
	}
	return false
}

// HTTPStatus maps err to the status code the server should answer with.
func HTTPStatus(err error) int {
	if IsCategory(err, CategoryInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Sentinel errors for common failure modes.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidDimensions = errors.New("invalid dimensions")
)
