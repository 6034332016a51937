// Package derrors holds the error kinds shared by the ledgers, the analytics
// service and the HTTP layer. Packages wrap these with %w and add detail;
// the HTTP layer maps the kind to a status code with errors.Is.
package derrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrVersionConflict   = errors.New("version conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)
