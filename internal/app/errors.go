package service

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNotFound      = errors.New("user not found")
	ErrUnknownGroup  = errors.New("unknown taxon group")
	ErrUnknownTrophy = errors.New("unknown trophy")
	ErrUnknownScope  = errors.New("unknown trophy scope")
)
