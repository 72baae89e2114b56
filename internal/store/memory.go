package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
)

// MemoryStore is an in-process Store used by tests and single-authority
// development setups. It applies the same atomicity and status-transition
// rules as the Postgres implementation.
type MemoryStore struct {
	mu          sync.RWMutex
	clock       time2.Clock
	elections   map[string]*Election
	authorities map[string][]*Authority
	sessions    map[string]map[string]*Session
}

func NewMemoryStore(clock time2.Clock) *MemoryStore {
	return &MemoryStore{
		clock:       clock,
		elections:   make(map[string]*Election),
		authorities: make(map[string][]*Authority),
		sessions:    make(map[string]map[string]*Session),
	}
}

func (s *MemoryStore) CreateElection(_ context.Context, election *Election, authorities []*Authority, sessions []*Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elections[election.ID]; ok {
		return errors.Errorf("election %s already exists", election.ID)
	}

	now := s.clock.Now()

	e := *election
	e.CreatedAt = now
	s.elections[election.ID] = &e

	auths := make([]*Authority, 0, len(authorities))
	for _, a := range authorities {
		ac := *a
		ac.ElectionID = election.ID
		auths = append(auths, &ac)
	}
	s.authorities[election.ID] = auths

	byID := make(map[string]*Session, len(sessions))
	for _, sess := range sessions {
		sc := *sess
		sc.ElectionID = election.ID
		sc.CreatedAt = now
		if sc.Status == "" {
			sc.Status = SessionStatusDefault
		}
		byID[sc.ID] = &sc
	}
	s.sessions[election.ID] = byID

	return nil
}

func (s *MemoryStore) GetElection(_ context.Context, electionID string) (*Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.elections[electionID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "election %s", electionID)
	}

	clone := *e
	return &clone, nil
}

func (s *MemoryStore) ElectionExists(_ context.Context, electionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.elections[electionID]
	return ok, nil
}

func (s *MemoryStore) GetAuthorities(_ context.Context, electionID string) ([]*Authority, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auths, ok := s.authorities[electionID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "election %s", electionID)
	}

	out := make([]*Authority, 0, len(auths))
	for _, a := range auths {
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func (s *MemoryStore) GetSessions(_ context.Context, electionID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID, ok := s.sessions[electionID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "election %s", electionID)
	}

	out := make([]*Session, 0, len(byID))
	for _, sess := range byID {
		clone := *sess
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })

	return out, nil
}

func (s *MemoryStore) GetSession(_ context.Context, electionID, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[electionID][sessionID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "session %s of election %s", sessionID, electionID)
	}

	clone := *sess
	return &clone, nil
}

func (s *MemoryStore) UpdateSessionStatus(_ context.Context, electionID, sessionID string, next SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[electionID][sessionID]
	if !ok {
		return errors.Wrapf(ErrNotFound, "session %s of election %s", sessionID, electionID)
	}

	if !CanTransition(sess.Status, next) {
		return errors.Wrapf(ErrInvalidTransition, "from %s to %s", sess.Status, next)
	}

	sess.Status = next
	return nil
}

func (s *MemoryStore) SetSessionPublicKey(_ context.Context, electionID, sessionID, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[electionID][sessionID]
	if !ok {
		return errors.Wrapf(ErrNotFound, "session %s of election %s", sessionID, electionID)
	}

	sess.PublicKey = publicKey
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
