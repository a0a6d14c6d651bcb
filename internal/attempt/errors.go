package attempt

import (
	"errors"
	"fmt"
)

var (
	ErrTestNotFound     = errors.New("test not found")
	ErrInvalidQuestion  = errors.New("question does not belong to test")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrMissingUser      = errors.New("user id required")
	ErrStoreUnavailable = errors.New("store unavailable")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
