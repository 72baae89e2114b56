package ceremony

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/mixnet"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
)

// Bootstrapper creates a performer's local state for an election exactly
// once: the Election/Authority/Session rows in a single transaction, the
// private directory tree, and the director-supplied stub descriptors.
type Bootstrapper struct {
	store store.Store
	paths config.Paths
}

func NewBootstrapper(st store.Store, paths config.Paths) *Bootstrapper {
	return &Bootstrapper{
		store: st,
		paths: paths,
	}
}

// AssertNotCreated fails if any session's local descriptor already exists.
// A present descriptor means the step already ran; running it again would
// silently clobber ceremony state, so replays are a hard failure.
func (b *Bootstrapper) AssertNotCreated(data *SubmissionData) error {
	electionID := swag.StringValue(data.ElectionID)

	for _, session := range data.Sessions {
		sessionID := swag.StringValue(session.ID)
		descriptorPath := filepath.Join(sessionPrivateDir(b.paths, electionID, sessionID), mixnet.LocalDescriptorFile)

		if _, err := os.Stat(descriptorPath); err == nil {
			return Errorf("session_id %s already created", sessionID)
		}
	}

	return nil
}

// Bootstrap creates the rows, directories and stubs for an election this
// node did not initiate. The rows commit atomically; directory creation
// happens before the commit so a failure leaves no committed rows behind.
func (b *Bootstrapper) Bootstrap(ctx context.Context, data *SubmissionData) error {
	log := util.LogFromContext(ctx)
	electionID := swag.StringValue(data.ElectionID)

	electionDir := electionPrivateDir(b.paths, electionID)
	if _, err := os.Stat(electionDir); err == nil {
		return Errorf("election %s already exists", electionID)
	}

	election := electionFromSubmission(data)

	authorities := make([]*store.Authority, 0, len(data.Authorities))
	for _, auth := range data.Authorities {
		authorities = append(authorities, &store.Authority{
			Name:        swag.StringValue(auth.Name),
			Certificate: swag.StringValue(auth.Certificate),
			Endpoint:    swag.StringValue(auth.Endpoint),
			ElectionID:  electionID,
		})
	}

	sessions := make([]*store.Session, 0, len(data.Sessions))
	for i, session := range data.Sessions {
		sessions = append(sessions, &store.Session{
			ID:         swag.StringValue(session.ID),
			ElectionID: electionID,
			Ordinal:    i,
			Status:     store.SessionStatusDefault,
		})
	}

	for _, session := range data.Sessions {
		sessionID := swag.StringValue(session.ID)
		sessionDir := sessionPrivateDir(b.paths, electionID, sessionID)

		if err := os.MkdirAll(sessionDir, 0o700); err != nil {
			return errors.Wrapf(err, "create session directory %s", sessionDir)
		}

		stubPath := filepath.Join(sessionDir, mixnet.StubFile)
		if err := os.WriteFile(stubPath, []byte(swag.StringValue(session.Stub)), 0o600); err != nil {
			return errors.Wrapf(err, "write stub of session %s", sessionID)
		}
	}

	if err := b.store.CreateElection(ctx, election, authorities, sessions); err != nil {
		return errors.Wrapf(err, "create election %s", electionID)
	}

	log.Info().
		Str("election_id", electionID).
		Int("authorities", len(authorities)).
		Int("sessions", len(sessions)).
		Msg("Bootstrapped local election state")

	return nil
}

func electionFromSubmission(data *SubmissionData) *store.Election {
	var start, end null.Time
	if data.VotingStartDate != nil {
		start = null.TimeFrom(time.Time(*data.VotingStartDate))
	}
	if data.VotingEndDate != nil {
		end = null.TimeFrom(time.Time(*data.VotingEndDate))
	}

	return &store.Election{
		ID:               swag.StringValue(data.ElectionID),
		Title:            swag.StringValue(data.Title),
		URL:              swag.StringValue(data.URL),
		Description:      swag.StringValue(data.Description),
		QuestionsData:    swag.StringValue(data.QuestionsData),
		VotingStartDate:  start,
		VotingEndDate:    end,
		IsRecurring:      swag.BoolValue(data.IsRecurring),
		NumParties:       data.NumParties,
		ThresholdParties: data.ThresholdParties,
	}
}
