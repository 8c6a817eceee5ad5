package openapi

import "errors"

var (
	// ErrOperationNotFound is returned when the document does not declare the
	// predict operation.
	ErrOperationNotFound = errors.New("openapi: predict operation not found")
	// ErrFieldMismatch is returned when the request body properties do not line
	// up with the eight form fields.
	ErrFieldMismatch = errors.New("openapi: request body does not match form fields")
)
