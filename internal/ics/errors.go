package ics

import "errors"

var (
	// ErrMissingField is returned by AddEvent when one of the five event
	// fields is absent. Present-but-empty values are not an error.
	ErrMissingField = errors.New("missing required event field")

	// ErrInvalidTime is returned by AddEvent when start or end cannot be
	// parsed into a date/time.
	ErrInvalidTime = errors.New("invalid event time")

	// ErrNoEvents is returned by Build and Download on an empty document.
	ErrNoEvents = errors.New("calendar has no events")

	// ErrExport wraps a failure reported by an Exporter.
	ErrExport = errors.New("calendar export failed")
)
