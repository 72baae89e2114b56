package store

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

// Election is the master record of one election's key-generation ceremony.
// It is created exactly once, either eagerly by the director at submission
// time or lazily by a performer on the first ceremony message, and is
// immutable afterwards.
type Election struct {
	ID               string
	Title            string
	URL              string
	Description      string
	QuestionsData    string
	VotingStartDate  null.Time
	VotingEndDate    null.Time
	IsRecurring      bool
	NumParties       int
	ThresholdParties int
	CreatedAt        time.Time
}

// Authority is one party of an election's ceremony.
type Authority struct {
	Name        string
	Certificate string
	Endpoint    string
	ElectionID  string
}

// Session is one election question requiring its own independent key.
type Session struct {
	ID         string
	ElectionID string
	Ordinal    int
	Status     SessionStatus
	PublicKey  string
	CreatedAt  time.Time
}

// Store is the persistence collaborator of the ceremony core.
//
// CreateElection commits the election, its authorities and its sessions as
// one unit: either every row exists afterwards or none does.
type Store interface {
	CreateElection(ctx context.Context, election *Election, authorities []*Authority, sessions []*Session) error
	GetElection(ctx context.Context, electionID string) (*Election, error)
	ElectionExists(ctx context.Context, electionID string) (bool, error)
	GetAuthorities(ctx context.Context, electionID string) ([]*Authority, error)
	GetSessions(ctx context.Context, electionID string) ([]*Session, error)
	GetSession(ctx context.Context, electionID, sessionID string) (*Session, error)
	UpdateSessionStatus(ctx context.Context, electionID, sessionID string, next SessionStatus) error
	SetSessionPublicKey(ctx context.Context, electionID, sessionID, publicKey string) error
	Ping(ctx context.Context) error
}
