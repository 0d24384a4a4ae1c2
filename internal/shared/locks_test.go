package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReplenishLockKey(t *testing.T) {
	require.Equal(t, "replenish:sku:SKU-001:lock", ReplenishLockKey("SKU-001"))
}

func TestRunStateRejectsConcurrentStart(t *testing.T) {
	state := NewRunState(10 * time.Minute)
	now := time.Now()

	require.True(t, state.TryStart(now))
	require.True(t, state.Running())
	require.False(t, state.TryStart(now.Add(time.Minute)))

	state.Finish()
	require.False(t, state.Running())
	require.True(t, state.TryStart(now.Add(2*time.Minute)))
}

func TestRunStateReclaimsStaleRun(t *testing.T) {
	state := NewRunState(10 * time.Minute)
	now := time.Now()

	require.True(t, state.TryStart(now))
	// Run never finished; after the hold window it is considered abandoned.
	require.True(t, state.TryStart(now.Add(11*time.Minute)))
}
