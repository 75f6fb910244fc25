package failsafe_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AdamRoberts/failsafe"
)

type timeoutError struct{ op string }

func (e *timeoutError) Error() string { return fmt.Sprintf("timeout during %s", e.op) }

var errNotFound = errors.New("not found")

func TestCategoryAsMatchesAssignableType(t *testing.T) {
	cat := failsafe.CategoryAs[*timeoutError]("timeout")
	require.Equal(t, "timeout", cat.String())

	wrapped := fmt.Errorf("dial: %w", &timeoutError{op: "dial"})
	require.True(t, cat.Matches(wrapped))
	require.False(t, cat.Matches(errNotFound))
}

func TestCategoryIsMatchesSentinel(t *testing.T) {
	cat := failsafe.CategoryIs(errNotFound, "not-found")
	require.True(t, cat.Matches(fmt.Errorf("lookup: %w", errNotFound)))
	require.False(t, cat.Matches(&timeoutError{op: "dial"}))
}
