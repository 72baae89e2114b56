package store_test

import (
	"testing"
	"time"

	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	return store.NewMemoryStore(time2.NewMockClock(time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)))
}

func seedElection(t *testing.T, s *store.MemoryStore) {
	t.Helper()

	err := s.CreateElection(t.Context(),
		&store.Election{ID: "E1", Title: "Test election", NumParties: 2, ThresholdParties: 2},
		[]*store.Authority{
			{Name: "alpha", Certificate: "cert-a", Endpoint: "https://alpha/api/queues"},
			{Name: "beta", Certificate: "cert-b", Endpoint: "https://beta/api/queues"},
		},
		[]*store.Session{
			{ID: "S2", Ordinal: 1},
			{ID: "S1", Ordinal: 0},
		})
	require.NoError(t, err)
}

func TestMemoryStoreCreateAndFetch(t *testing.T) {
	s := newTestStore(t)
	seedElection(t, s)
	ctx := t.Context()

	e, err := s.GetElection(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Test election", e.Title)
	assert.False(t, e.CreatedAt.IsZero())

	exists, err := s.ElectionExists(ctx, "E1")
	require.NoError(t, err)
	assert.True(t, exists)

	auths, err := s.GetAuthorities(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, auths, 2)

	sessions, err := s.GetSessions(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	// ordered by ordinal regardless of insertion order
	assert.Equal(t, "S1", sessions[0].ID)
	assert.Equal(t, "S2", sessions[1].ID)
	assert.Equal(t, store.SessionStatusDefault, sessions[0].Status)
}

func TestMemoryStoreDuplicateElection(t *testing.T) {
	s := newTestStore(t)
	seedElection(t, s)

	err := s.CreateElection(t.Context(), &store.Election{ID: "E1"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestMemoryStoreStatusTransitions(t *testing.T) {
	s := newTestStore(t)
	seedElection(t, s)
	ctx := t.Context()

	require.NoError(t, s.UpdateSessionStatus(ctx, "E1", "S1", store.SessionStatusDescriptorReady))
	require.NoError(t, s.UpdateSessionStatus(ctx, "E1", "S1", store.SessionStatusKeyGenerated))

	err := s.UpdateSessionStatus(ctx, "E1", "S1", store.SessionStatusDefault)
	require.ErrorIs(t, err, store.ErrInvalidTransition)

	sess, err := s.GetSession(ctx, "E1", "S1")
	require.NoError(t, err)
	assert.Equal(t, store.SessionStatusKeyGenerated, sess.Status)

	err = s.UpdateSessionStatus(ctx, "E1", "missing", store.SessionStatusDescriptorReady)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStoreSetSessionPublicKey(t *testing.T) {
	s := newTestStore(t)
	seedElection(t, s)
	ctx := t.Context()

	require.NoError(t, s.SetSessionPublicKey(ctx, "E1", "S1", "pk"))

	sess, err := s.GetSession(ctx, "E1", "S1")
	require.NoError(t, err)
	assert.Equal(t, "pk", sess.PublicKey)
}
