package failsafe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AdamRoberts/failsafe"
)

func TestPolicyBuilderValidation(t *testing.T) {
	t.Run("accepts a well-formed policy", func(t *testing.T) {
		_, err := failsafe.NewPolicy[string]().
			WithBackoff(10*time.Millisecond, time.Second, 2).
			WithMaxRetries(5).
			Build()
		require.NoError(t, err)
	})

	t.Run("rejects delay and backoff combined", func(t *testing.T) {
		_, err := failsafe.NewPolicy[string]().
			WithDelay(time.Millisecond).
			WithBackoff(time.Millisecond, time.Second, 2).
			Build()
		require.Error(t, err)
		require.True(t, failsafe.IsInvalidConfiguration(err))
	})

	t.Run("rejects zero delay", func(t *testing.T) {
		_, err := failsafe.NewPolicy[string]().WithDelay(0).Build()
		require.True(t, failsafe.IsInvalidConfiguration(err))
	})

	t.Run("rejects backoff delay not less than maxDelay", func(t *testing.T) {
		_, err := failsafe.NewPolicy[string]().
			WithBackoff(time.Second, time.Second, 2).
			Build()
		require.True(t, failsafe.IsInvalidConfiguration(err))
	})

	t.Run("rejects multiplier <= 1", func(t *testing.T) {
		_, err := failsafe.NewPolicy[string]().
			WithBackoff(time.Millisecond, time.Second, 1).
			Build()
		require.True(t, failsafe.IsInvalidConfiguration(err))
	})

	t.Run("rejects maxRetries below -1", func(t *testing.T) {
		_, err := failsafe.NewPolicy[string]().WithMaxRetries(-2).Build()
		require.True(t, failsafe.IsInvalidConfiguration(err))
	})

	t.Run("rejects maxDuration not greater than delay", func(t *testing.T) {
		_, err := failsafe.NewPolicy[string]().
			WithDelay(time.Second).
			WithMaxDuration(time.Second).
			Build()
		require.True(t, failsafe.IsInvalidConfiguration(err))
	})

	t.Run("combines multiple simultaneous violations", func(t *testing.T) {
		_, err := failsafe.NewPolicy[string]().
			WithDelay(0).
			WithMaxRetries(-5).
			Build()
		require.Error(t, err)
		msg := err.Error()
		require.Contains(t, msg, "delay")
		require.Contains(t, msg, "maxRetries")
	})

	t.Run("default multiplier applies when zero is passed", func(t *testing.T) {
		policy, err := failsafe.NewPolicy[string]().
			WithBackoff(10*time.Millisecond, time.Second, 0).
			Build()
		require.NoError(t, err)
		require.NotNil(t, policy)
	})
}

func TestNever(t *testing.T) {
	policy := failsafe.Never[string]()
	require.NotNil(t, policy)
}
