package core

import "errors"

var (
	// ErrExtractionFailure is returned when a UI fragment holds no usable email fields
	ErrExtractionFailure = errors.New("extraction failure")
	// ErrTransportFailure is returned when the classification host cannot be reached
	ErrTransportFailure = errors.New("classification transport failure")
	// ErrModelResponse is returned when a model response is not a valid verdict
	ErrModelResponse = errors.New("model response parse failure")
	// ErrBackendUnavailable is returned when the text generation backend fails
	ErrBackendUnavailable = errors.New("model backend unavailable")
	// ErrConfigUnavailable is returned when settings cannot be fetched
	ErrConfigUnavailable = errors.New("config unavailable")
)
