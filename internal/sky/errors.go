package sky

import "errors"

var (
	// ErrValidation marks caller errors: out-of-range input, unknown body,
	// malformed timestamps. Nothing is computed when it is returned.
	ErrValidation = errors.New("validation error")

	// ErrInternal marks computation failures such as an ephemeris that
	// cannot resolve a body. Not retried.
	ErrInternal = errors.New("internal error")
)

// IsValidation reports whether err is a caller error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
