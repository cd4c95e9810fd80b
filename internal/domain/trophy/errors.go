package trophy

import "errors"

// Sentinel error kinds for this package.
var (
	ErrDuplicateSlug = errors.New("duplicate trophy slug")
	ErrUnknownSlug   = errors.New("unknown trophy slug")
)
