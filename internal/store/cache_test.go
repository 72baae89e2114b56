package store_test

import (
	"testing"
	"time"

	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The noop cache stands in when redis is disabled. Callers must see the same
// contract a healthy redis would give an uncontended single node: saves and
// publishes succeed silently, lookups miss, locks are always granted, and the
// decision channel yields nothing instead of blocking a subscriber forever.
func TestNoopCacheContract(t *testing.T) {
	cache := store.NewNoopCache()
	ctx := t.Context()

	require.NoError(t, cache.SaveState(ctx, &store.CeremonyState{ElectionID: "E1", Step: "submitted"}, time.Minute))

	_, err := cache.GetState(ctx, "E1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	require.NoError(t, cache.PublishDecision(ctx, "E1", []byte(`{"status": "accepted"}`)))

	ch, err := cache.SubscribeDecisions(ctx, "E1")
	require.NoError(t, err)
	_, open := <-ch
	assert.False(t, open, "decision channel must be closed, not blocking")

	ok, err := cache.AcquireLock(ctx, "decision:E1:accepted", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// re-acquiring is fine as well, there is nothing to contend with
	ok, err = cache.AcquireLock(ctx, "decision:E1:accepted", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.ReleaseLock(ctx, "decision:E1:accepted"))
}
