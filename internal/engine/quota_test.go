package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)

	for i := 0; i < 10; i++ {
		assert.NoError(t, q.Check("seek"), "step %d should be allowed", i+1)
	}

	assert.Equal(t, int64(10), q.Current())
	assert.Equal(t, int64(10), q.MaxSteps())
}

func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(5)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check("exhaustive"))
	}

	err := q.Check("exhaustive")
	require.Error(t, err)

	var stepsErr *StepsExceededError
	require.ErrorAs(t, err, &stepsErr)
	assert.Equal(t, "exhaustive", stepsErr.Op)
	assert.Equal(t, int64(6), stepsErr.Steps)
	assert.Equal(t, int64(5), stepsErr.Limit)
	assert.Equal(t, "exhaustive exceeded max steps quota: 6 steps > 5 limit", err.Error())
}

func TestQuotaEnforcer_DefaultLimit(t *testing.T) {
	assert.Equal(t, int64(DefaultMaxSteps), NewQuotaEnforcer(0).MaxSteps())
	assert.Equal(t, int64(DefaultMaxSteps), NewQuotaEnforcer(-3).MaxSteps())
}

func TestQuotaEnforcer_Reset(t *testing.T) {
	q := NewQuotaEnforcer(2)
	_ = q.Check("seek")
	_ = q.Check("seek")
	q.Reset()
	assert.Equal(t, int64(0), q.Current())
	assert.NoError(t, q.Check("seek"))
}

func TestIsStepsExceededError_Wrapped(t *testing.T) {
	err := fmt.Errorf("step 3: %w", &StepsExceededError{Op: "seek", Steps: 2, Limit: 1})
	assert.True(t, IsStepsExceededError(err))
	assert.False(t, IsStepsExceededError(fmt.Errorf("other")))
}
