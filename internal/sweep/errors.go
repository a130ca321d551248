package sweep

import (
	"errors"
	"fmt"
)

// ErrAllChecksFailed is returned after reports are written when no check completed.
var ErrAllChecksFailed = errors.New("every check failed")

// PreconditionError reports that the WordPress install needed for the activation probe is missing.
type PreconditionError struct {
	Site string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("activation probe precondition failed for site %s: %v", e.Site, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
