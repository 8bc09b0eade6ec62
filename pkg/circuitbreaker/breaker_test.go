package circuitbreaker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePassesThrough(t *testing.T) {
	b, err := New(DefaultConfig("test"), nil)
	require.NoError(t, err)

	result, err := b.Execute(context.Background(), func() (any, error) {
		return 0.42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0.42, result)
	assert.Equal(t, StateClosed, b.CurrentState())
}

func TestExecuteOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.FailureThreshold = 3
	b, err := New(cfg, nil)
	require.NoError(t, err)

	boom := errors.New("upstream down")
	for i := 0; i < 3; i++ {
		_, err := b.Execute(context.Background(), func() (any, error) {
			return nil, boom
		})
		require.Error(t, err)
		assert.False(t, Rejected(err))
	}

	assert.Equal(t, StateOpen, b.CurrentState())

	// Calls are now rejected without invoking fn.
	invoked := false
	_, err = b.Execute(context.Background(), func() (any, error) {
		invoked = true
		return nil, nil
	})
	require.Error(t, err)
	assert.True(t, Rejected(err))
	assert.False(t, invoked)
}
