package occupancy

import "errors"

var (
	// ErrConflict is returned when another user already holds the spot.
	ErrConflict = errors.New("spot already occupied")
	// ErrForbidden is returned when releasing a spot held by someone else.
	ErrForbidden = errors.New("spot held by another user")
	// ErrNotFound is returned for unknown users or spots.
	ErrNotFound = errors.New("user or spot not found")
)
