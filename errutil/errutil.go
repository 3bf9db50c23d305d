// Package errutil contains helpers for inspecting wrapped errors, for example to report the root cause of a failed
// formation run.
package errutil

import (
	"errors"
	"strings"
)

// Contains returns a boolean indicating whether the given error contained the given substring.
//
// NOTE: A <nil> error will always return false.
func Contains(err error, substr string) bool {
	return err != nil && strings.Contains(err.Error(), substr)
}

// Unwrap completely unwraps an error, returning the source/root error.
//
// NOTE: Only single error chains are followed, joined errors are returned as is.
func Unwrap(err error) error {
	for err != nil {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			break
		}

		err = unwrapped
	}

	return err
}
