package derive

import (
	"errors"
	"fmt"
)

// DegenerateError reports a derivation whose inputs put it outside its
// valid domain: a zero denominator or a negative square-root argument.
// A degenerate input signals an invalid locked configuration, never a
// legitimate edge case, so the whole run aborts.
type DegenerateError struct {
	// Quantity names the derivation that failed.
	Quantity string

	// Reason describes the domain violation.
	Reason string
}

// Error implements the error interface.
func (e *DegenerateError) Error() string {
	return fmt.Sprintf("DEGENERATE_PARAMETERS: %s: %s", e.Quantity, e.Reason)
}

// IsDegenerate reports whether err is a degenerate-parameters error.
// Uses errors.As to handle wrapped errors.
func IsDegenerate(err error) bool {
	var de *DegenerateError
	return errors.As(err, &de)
}
