package core

import "errors"

// ErrCartRequired rejects cart-less uploads before any blob is written, to
// bound abuse. Handlers map it to 401.
var ErrCartRequired = errors.New("cart id is required")

// ErrNotFound marks lookups against the Commerce Backend or the device
// registry that resolved to nothing. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ValidationError is a recoverable user-input error. Its message is safe to
// surface verbatim with a 4xx status.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a plain message.
func Validationf(msg string) error { return &ValidationError{Message: msg} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExportError marks a failed rasterization, typically an image layer whose
// source asset never resolved. The caller surfaces a retry affordance and
// must not proceed to upload.
type ExportError struct {
	LayerID string
	Reason  string
}

func (e *ExportError) Error() string {
	if e.LayerID != "" {
		return "export failed for layer " + e.LayerID + ": " + e.Reason
	}
	return "export failed: " + e.Reason
}
