package ceremony

import (
	"context"

	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/mixnet"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/pkg/errors"
)

// DescriptorGenerator runs phase 1: one CryptoEngine invocation per session
// producing this authority's local protocol descriptor.
type DescriptorGenerator struct {
	store     store.Store
	engine    mixnet.Engine
	authority config.Authority
	paths     config.Paths
}

func NewDescriptorGenerator(st store.Store, engine mixnet.Engine, authority config.Authority, paths config.Paths) *DescriptorGenerator {
	return &DescriptorGenerator{
		store:     st,
		engine:    engine,
		authority: authority,
		paths:     paths,
	}
}

// Generate produces the local descriptor of every session of the election,
// in session order. Engine failure for any one session fails the whole
// phase; nothing partial is reported.
func (g *DescriptorGenerator) Generate(ctx context.Context, electionID string) (*Phase1Result, error) {
	log := util.LogFromContext(ctx)

	// the authority name is re-derived from the stored list on every phase,
	// matched by our own endpoint
	authorities, err := g.store.GetAuthorities(ctx, electionID)
	if err != nil {
		return nil, errors.Wrapf(err, "load authorities of election %s", electionID)
	}

	var authorityName string
	for _, auth := range authorities {
		if auth.Endpoint == g.authority.RootURL {
			authorityName = auth.Name
			break
		}
	}
	if authorityName == "" {
		return nil, NewError("trying to process what seems to be an external election")
	}

	sessions, err := g.store.GetSessions(ctx, electionID)
	if err != nil {
		return nil, errors.Wrapf(err, "load sessions of election %s", electionID)
	}

	descriptors := make([]string, 0, len(sessions))
	for _, session := range sessions {
		descriptor, err := g.engine.GenerateLocalDescriptor(ctx, &mixnet.DescriptorRequest{
			SessionDir:    sessionPrivateDir(g.paths, electionID, session.ID),
			AuthorityName: authorityName,
			ServerURL:     g.authority.ServerURL,
			HintServerURL: g.authority.HintServerURL,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "generate local descriptor of session %s", session.ID)
		}

		descriptors = append(descriptors, descriptor)

		log.Info().
			Str("election_id", electionID).
			Str("session_id", session.ID).
			Msg("Generated local descriptor")
	}

	// statuses mirror file presence: flip them only once every descriptor
	// exists on disk
	for _, session := range sessions {
		if err := g.store.UpdateSessionStatus(ctx, electionID, session.ID, store.SessionStatusDescriptorReady); err != nil {
			return nil, errors.Wrapf(err, "mark session %s descriptor_ready", session.ID)
		}
	}

	return &Phase1Result{Descriptors: descriptors}, nil
}
