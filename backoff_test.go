package failsafe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AdamRoberts/failsafe"
)

func TestConstant(t *testing.T) {
	b := failsafe.Constant(100 * time.Millisecond)
	for attempt := 1; attempt <= 5; attempt++ {
		require.Equal(t, 100*time.Millisecond, b.Delay(attempt))
	}
}

func TestLinear(t *testing.T) {
	b := failsafe.Linear(100 * time.Millisecond)
	cases := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{5, 500 * time.Millisecond},
	}
	for _, tc := range cases {
		require.Equal(t, tc.expected, b.Delay(tc.attempt))
	}
}

func TestExponential(t *testing.T) {
	b := failsafe.Exponential(100*time.Millisecond, 2)
	cases := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
	}
	for _, tc := range cases {
		require.Equal(t, tc.expected, b.Delay(tc.attempt))
	}
}

func TestWithCap(t *testing.T) {
	b := failsafe.WithCap(500*time.Millisecond, failsafe.Exponential(100*time.Millisecond, 2))
	require.Equal(t, 100*time.Millisecond, b.Delay(1))
	require.Equal(t, 400*time.Millisecond, b.Delay(3))
	require.Equal(t, 500*time.Millisecond, b.Delay(4)) // would be 800ms uncapped
	require.Equal(t, 500*time.Millisecond, b.Delay(5))
}

func TestWithMin(t *testing.T) {
	b := failsafe.WithMin(150*time.Millisecond, failsafe.Linear(50*time.Millisecond))
	require.Equal(t, 150*time.Millisecond, b.Delay(1))
	require.Equal(t, 150*time.Millisecond, b.Delay(2))
	require.Equal(t, 150*time.Millisecond, b.Delay(3))
	require.Equal(t, 200*time.Millisecond, b.Delay(4))
}

func TestWithJitterStaysWithinRange(t *testing.T) {
	b := failsafe.WithJitter(0.2, failsafe.Constant(100*time.Millisecond))
	for i := 0; i < 50; i++ {
		d := b.Delay(i)
		require.GreaterOrEqual(t, d, 80*time.Millisecond)
		require.LessOrEqual(t, d, 120*time.Millisecond)
	}
}

func TestBackoffFunc(t *testing.T) {
	b := failsafe.BackoffFunc(func(attempt int) time.Duration {
		return time.Duration(attempt*attempt) * 10 * time.Millisecond
	})
	require.Equal(t, 10*time.Millisecond, b.Delay(1))
	require.Equal(t, 40*time.Millisecond, b.Delay(2))
	require.Equal(t, 90*time.Millisecond, b.Delay(3))
}

func TestComposedBackoff(t *testing.T) {
	b := failsafe.WithMin(50*time.Millisecond,
		failsafe.WithCap(1*time.Second,
			failsafe.Exponential(10*time.Millisecond, 2),
		),
	)
	require.Equal(t, 50*time.Millisecond, b.Delay(1))
	require.Equal(t, 50*time.Millisecond, b.Delay(2))
	require.Equal(t, 160*time.Millisecond, b.Delay(5))
	require.Equal(t, 1*time.Second, b.Delay(10))
}
