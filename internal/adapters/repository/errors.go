package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrClosed    = errors.New("store closed")
	ErrInvalidID = errors.New("observation id must be positive")
)
