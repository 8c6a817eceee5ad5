package controller

import "errors"

var (
	// ErrUnknownField is returned for field names outside the form.
	ErrUnknownField = errors.New("controller: unknown field")
	// ErrNoPredictor is returned by New when no predictor is supplied.
	ErrNoPredictor = errors.New("controller: predictor is required")
)
