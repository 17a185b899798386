// Package rfperr defines the error kinds of the RFP pipeline.
//
// NotFound and InvalidData are fatal and surface to the caller. Every other
// kind is contained by the stage that produced it.
package rfperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidData = errors.New("invalid data")
	ErrMatching    = errors.New("matching failed")
	ErrSelection   = errors.New("selection failed")
	ErrPricing     = errors.New("pricing calculation failed")
	ErrAgent       = errors.New("text generation failed")
	ErrOutput      = errors.New("proposal formatting failed")
)

// IsFatal reports whether err must abort the whole pipeline.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidData)
}

// NotFound returns an ErrNotFound error with a message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidData returns an ErrInvalidData error carrying the cause.
func InvalidData(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrInvalidData, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrInvalidData, msg, cause)
}

// Panic converts a recovered panic value into an error of the given kind.
func Panic(kind error, recovered any) error {
	return fmt.Errorf("%w: panic: %v", kind, recovered)
}
