package domain

import "errors"

// Domain errors
var (
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrInvalidFilter     = errors.New("invalid leaderboard filter")
	ErrStoreUnavailable  = errors.New("score store unavailable")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInternalError     = errors.New("internal server error")
)

// IsRejection reports whether an error is a client-side rejection rather
// than a transient server failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidSubmission) || errors.Is(err, ErrInvalidFilter) || errors.Is(err, ErrInvalidRequest)
}
