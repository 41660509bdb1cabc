package models

import (
	"errors"
	"fmt"
)

var (
	// ErrRegionBlocked is returned when the service answers with something
	// which isn't the expected JSON. Most likely the region is blocked.
	ErrRegionBlocked = errors.New("unable to receive a valid response from Meta AI, this is likely due to your region being blocked. Try manually accessing https://www.meta.ai/ to confirm")

	ErrAuthentication = errors.New("authentication failed")

	// ErrDecode marks an attempt which produced no usable reply. It's always
	// retried and never surfaced directly.
	ErrDecode = errors.New("no valid response in reply")

	ErrRetriesExhausted = errors.New("unable to obtain a valid response from Meta AI, try again later")

	ErrEmptyMessage = errors.New("message is empty")
)

// ErrRetryExhausted is the terminal error of a send once all attempts have failed.
type ErrRetryExhausted struct {
	Attempts int
	Last     error
}

func NewRetryExhaustedError(attempts int, last error) error {
	return &ErrRetryExhausted{
		Attempts: attempts,
		Last:     last,
	}
}

func (e *ErrRetryExhausted) Error() string {
	return fmt.Sprintf("%v (attempts: %v, last error: %v)", ErrRetriesExhausted, e.Attempts, e.Last)
}

func (e *ErrRetryExhausted) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Last}
}
