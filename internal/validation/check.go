// Package validation implements the venue's pure, composable validators
// (§4.4, §9): a generic Check[T] function type with short-circuiting chains.
package validation

import "github.com/marketsim/venue/pkg/errors"

// Check is a pure predicate over a value of type T. It returns nil on
// success or a tagged *errors.VenueError on failure.
type Check[T any] func(T) error

// Chain composes checks in order; the first failure stops the chain and
// its error is returned (§4.4: "the first failure stops the chain").
func Chain[T any](checks ...Check[T]) Check[T] {
	return func(v T) error {
		for _, check := range checks {
			if err := check(v); err != nil {
				return err
			}
		}
		return nil
	}
}
