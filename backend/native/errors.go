package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNoDevice is returned when no hal device and queue are available.
	ErrNoDevice = errors.New("native: no GPU device")

	// ErrUpload is logged when a buffer upload fails.
	ErrUpload = errors.New("native: buffer upload failed")
)
