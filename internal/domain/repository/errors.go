package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on unique-constraint violations.
	ErrDuplicate = errors.New("duplicate record")

	// ErrDuplicateEmail and ErrDuplicateUsername narrow ErrDuplicate down to
	// the violated column. Both match errors.Is(err, ErrDuplicate).
	ErrDuplicateEmail    = fmt.Errorf("%w: email", ErrDuplicate)
	ErrDuplicateUsername = fmt.Errorf("%w: username", ErrDuplicate)
)
