package models

import "errors"

// Error taxonomy shared by every layer. Match with errors.Is.
var (
	// ErrNotFound means the referenced id is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument means the input is malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable means the backing store failed.
	ErrUnavailable = errors.New("store unavailable")
	// ErrConflict means an expected version did not match the stored one.
	ErrConflict = errors.New("version conflict")
)
