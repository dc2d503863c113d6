package model

import "errors"

var (
	// ErrUnsupportedFormat is returned when the text extractor does not recognize the document.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCapabilityUnavailable is returned when the recognizer or extractor cannot service a request.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrStore is returned for search or graph store read/write failures.
	ErrStore = errors.New("store error")

	// ErrConsistencyViolation is returned when an edge references a node that does not exist.
	ErrConsistencyViolation = errors.New("consistency violation")

	// ErrInvalidInput is returned for caller errors such as a non-positive topK.
	ErrInvalidInput = errors.New("invalid input")
)
