package failsafe

import "errors"

// FailureCategory is a named predicate over an error, used by
// Policy.RetryOn to classify which failures are retryable. A category
// is either a concrete error type matched via errors.As, or a sentinel
// value matched via errors.Is.
type FailureCategory struct {
	name    string
	matches func(error) bool
}

// String returns the category's label, for diagnostics.
func (c FailureCategory) String() string {
	return c.name
}

// Matches reports whether err falls into this category.
func (c FailureCategory) Matches(err error) bool {
	return c.matches(err)
}

// CategoryAs builds a FailureCategory matching any error whose chain
// contains a value assignable to T.
func CategoryAs[T error](label string) FailureCategory {
	return FailureCategory{
		name: label,
		matches: func(err error) bool {
			var target T
			return errors.As(err, &target)
		},
	}
}

// CategoryIs builds a FailureCategory matching any error whose chain
// is the given sentinel, per errors.Is semantics.
func CategoryIs(sentinel error, label string) FailureCategory {
	return FailureCategory{
		name: label,
		matches: func(err error) bool {
			return errors.Is(err, sentinel)
		},
	}
}

// matchesAny reports whether err is assignable to any of the given
// categories.
func matchesAny(err error, categories []FailureCategory) bool {
	for _, c := range categories {
		if c.Matches(err) {
			return true
		}
	}
	return false
}
