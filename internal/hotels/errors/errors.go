package errors

import "errors"

var (
	ErrNotFound = errors.New("hotel not found")

	ErrInvalidID = errors.New("invalid hotel ID format")

	ErrInvalidFilter = errors.New("invalid hotel filter")
)
