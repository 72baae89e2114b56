package ceremony

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/mailer"
	"github.com/agoravoting/election-orchestra/internal/metrics"
	"github.com/agoravoting/election-orchestra/internal/mixnet"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/agoravoting/election-orchestra/internal/taskbus"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
)

// Task bus actions owned by the ceremony core.
const (
	ActionGeneratePrivateInfo      = "generate_private_info"
	ActionGenerateLocalDescriptors = "generate_local_descriptors"
	ActionGeneratePublicKey        = "generate_public_key"
)

// Ceremony progress steps mirrored into the cache.
const (
	stateSubmitted        = "submitted"
	stateAwaitingApproval = "awaiting_approval"
	stateRejected         = "rejected"
	stateDescriptorsReady = "descriptors_ready"
	statePublished        = "published"
)

const ceremonyStateTTL = 7 * 24 * time.Hour

// decisionDedupTTL is the window in which the same decision, arriving both
// over HTTP and over the cache channel, resumes the ceremony only once.
const decisionDedupTTL = time.Minute

// Service drives elections through the key-generation ceremony. Each public
// method is one independently dispatchable unit of work; the transport
// decides on which authority it runs.
type Service struct {
	cfg       config.Server
	localCert string
	store     store.Store
	cache     store.CeremonyCache
	bus       taskbus.Dispatcher
	engine    mixnet.Engine
	mailer    *mailer.Mailer

	validator    *Validator
	resolver     *RoleResolver
	bootstrapper *Bootstrapper
	gate         *Gate
	generator    *DescriptorGenerator
	publisher    *KeyPublisher
}

func NewService(
	cfg config.Server,
	localCert string,
	comparator CertComparator,
	st store.Store,
	cache store.CeremonyCache,
	bus taskbus.Dispatcher,
	engine mixnet.Engine,
	m *mailer.Mailer,
) *Service {
	return &Service{
		cfg:       cfg,
		localCert: localCert,
		store:     st,
		cache:     cache,
		bus:       bus,
		engine:    engine,
		mailer:    m,

		validator:    NewValidator(st, cfg.Ceremony.MaxQuestionsPerElection),
		resolver:     NewRoleResolver(localCert, comparator),
		bootstrapper: NewBootstrapper(st, cfg.Paths),
		gate:         NewGate(cfg.Ceremony.AutoAcceptRequests),
		generator:    NewDescriptorGenerator(st, engine, cfg.Authority, cfg.Paths),
		publisher:    NewKeyPublisher(st, engine, cfg.Paths),
	}
}

// Validator exposes the submission validator for boundary checks outside
// the ceremony itself (the public API).
func (s *Service) Validator() *Validator {
	return s.validator
}

// CreateElection is the director's entry point: validate a first-time
// submission, create all rows and directories eagerly, seed every session's
// stub descriptor, and start the ceremony.
func (s *Service) CreateElection(ctx context.Context, data *SubmissionData) (err error) {
	defer func(start time.Time) { metrics.ObserveStep("create_election", start, err) }(time.Now())

	log := util.LogFromContext(ctx)

	if err = s.validator.CheckElectionData(ctx, data, true); err != nil {
		return err
	}

	electionID := swag.StringValue(data.ElectionID)

	questions, err := parseQuestions(data.QuestionsData)
	if err != nil {
		return WrapError(err, "questions_data is not in json")
	}

	data.NumParties = len(data.Authorities)
	if data.ThresholdParties == 0 {
		data.ThresholdParties = len(data.Authorities)
	}

	// one session per election question
	sessions := make([]*store.Session, 0, len(questions))
	for i := range questions {
		sessions = append(sessions, &store.Session{
			ID:         fmt.Sprintf("%s-%d", electionID, i),
			ElectionID: electionID,
			Ordinal:    i,
			Status:     store.SessionStatusDefault,
		})
	}

	authorities := make([]*store.Authority, 0, len(data.Authorities))
	for _, auth := range data.Authorities {
		authorities = append(authorities, &store.Authority{
			Name:        swag.StringValue(auth.Name),
			Certificate: swag.StringValue(auth.Certificate),
			Endpoint:    swag.StringValue(auth.Endpoint),
			ElectionID:  electionID,
		})
	}

	sessionData := make([]*SessionData, 0, len(sessions))
	for _, session := range sessions {
		sessionDir := sessionPrivateDir(s.cfg.Paths, electionID, session.ID)
		if err = os.MkdirAll(sessionDir, 0o700); err != nil {
			return errors.Wrapf(err, "create session directory %s", sessionDir)
		}

		if err = s.engine.GenerateProtocolStub(ctx, &mixnet.StubRequest{
			SessionDir:       sessionDir,
			ElectionID:       electionID,
			SessionID:        session.ID,
			NumParties:       data.NumParties,
			ThresholdParties: data.ThresholdParties,
		}); err != nil {
			return errors.Wrapf(err, "generate stub of session %s", session.ID)
		}

		stub, readErr := os.ReadFile(filepath.Join(sessionDir, mixnet.StubFile))
		if readErr != nil {
			return errors.Wrapf(readErr, "read stub of session %s", session.ID)
		}

		sessionData = append(sessionData, &SessionData{
			ID:   swag.String(session.ID),
			Stub: swag.String(string(stub)),
		})
	}

	if err = s.store.CreateElection(ctx, electionFromSubmission(data), authorities, sessions); err != nil {
		return errors.Wrapf(err, "create election %s", electionID)
	}

	s.saveState(ctx, electionID, stateSubmitted, "")

	// start the ceremony by sending the submission to ourselves; fan-out to
	// the other authorities is the transport's concern
	payload := *data
	payload.Sessions = sessionData

	task, err := taskbus.NewTask(ActionGeneratePrivateInfo, electionID, s.localCert, &payload)
	if err != nil {
		return err
	}
	if err = s.bus.Dispatch(ctx, task); err != nil {
		return errors.Wrap(err, "dispatch ceremony start")
	}

	log.Info().
		Str("election_id", electionID).
		Int("sessions", len(sessions)).
		Int("authorities", len(authorities)).
		Msg("Created election, ceremony started")

	return nil
}

// HandleSubmission processes an incoming ceremony-start message: validate,
// decide our role, bootstrap local state if we are a performer, and either
// open the approval checkpoint or dispatch phase 1 directly.
func (s *Service) HandleSubmission(ctx context.Context, req *SubmissionRequest) (err error) {
	defer func(start time.Time) { metrics.ObserveStep(ActionGeneratePrivateInfo, start, err) }(time.Now())

	log := util.LogFromContext(ctx)
	data := req.Data

	if err = s.validator.CheckElectionData(ctx, data, false); err != nil {
		return err
	}
	if err = s.validator.CheckSessionData(data); err != nil {
		return err
	}

	electionID := swag.StringValue(data.ElectionID)

	if _, err = LocalAuthority(data, s.cfg.Authority.RootURL); err != nil {
		return err
	}

	// replay guard: phase 1 must not have run for any session
	if err = s.bootstrapper.AssertNotCreated(data); err != nil {
		return err
	}

	role := s.resolver.Resolve(req.SenderCert)
	log.Info().Str("election_id", electionID).Stringer("role", role).Msg("Resolved ceremony role")

	switch role {
	case RoleDirector:
		// we initiated this ceremony: state exists, fetch it
		if _, err = s.store.GetElection(ctx, electionID); err != nil {
			return errors.Wrapf(err, "load election %s", electionID)
		}
	case RolePerformer:
		if err = s.bootstrapper.Bootstrap(ctx, data); err != nil {
			return err
		}
	}

	if s.gate.Required() {
		s.saveState(ctx, electionID, stateAwaitingApproval, "")

		if s.cfg.Ceremony.OperatorEmail != "" {
			if mailErr := s.mailer.SendApprovalRequest(ctx, s.cfg.Ceremony.OperatorEmail, electionID, Prompt(data)); mailErr != nil {
				log.Error().Err(mailErr).Str("election_id", electionID).Msg("Failed to notify operator")
			}
		}

		// suspended: phase 1 is dispatched by the approval decision, which
		// arrives over HTTP or on the cache decision channel
		go s.watchDecisions(electionID)

		return nil
	}

	return s.dispatchPhase1(ctx, electionID, nil)
}

// HandleApprovalDecision resumes a suspended ceremony with the operator's
// decision. The decision itself is judged by the gate when phase 1 starts.
func (s *Service) HandleApprovalDecision(ctx context.Context, electionID string, decision *ApprovalDecision) (err error) {
	defer func(start time.Time) { metrics.ObserveStep("approval_decision", start, err) }(time.Now())

	if _, err = s.store.GetElection(ctx, electionID); err != nil {
		return errors.Wrapf(err, "load election %s", electionID)
	}

	if payload, marshalErr := json.Marshal(decision); marshalErr == nil {
		if cacheErr := s.cache.PublishDecision(ctx, electionID, payload); cacheErr != nil {
			util.LogFromContext(ctx).Warn().Err(cacheErr).Str("election_id", electionID).Msg("Failed to publish decision")
		}
	}

	return s.resumeWithDecision(ctx, electionID, decision)
}

// watchDecisions resumes a suspended ceremony from a decision published on
// the cache channel, typically by another process answering the checkpoint.
// It ends with the first decision; the checkpoint expires with the mirrored
// state.
func (s *Service) watchDecisions(electionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), ceremonyStateTTL)
	defer cancel()

	log := util.LogFromContext(ctx).With().Str("election_id", electionID).Logger()

	ch, err := s.cache.SubscribeDecisions(ctx, electionID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to subscribe to decisions")
		return
	}

	for payload := range ch {
		var decision ApprovalDecision
		if err := json.Unmarshal(payload, &decision); err != nil {
			log.Warn().Err(err).Msg("Ignoring malformed decision")
			continue
		}

		if err := s.resumeWithDecision(ctx, electionID, &decision); err != nil {
			log.Error().Err(err).Msg("Failed to resume ceremony from decision channel")
		}
		return
	}
}

// resumeWithDecision dispatches phase 1 carrying the decision, at most once
// per decision within the dedup window.
func (s *Service) resumeWithDecision(ctx context.Context, electionID string, decision *ApprovalDecision) error {
	lockKey := fmt.Sprintf("decision:%s:%s", electionID, decision.Status)

	ok, err := s.cache.AcquireLock(ctx, lockKey, decisionDedupTTL)
	if err != nil {
		// cache trouble never blocks the ceremony
		util.LogFromContext(ctx).Warn().Err(err).Str("election_id", electionID).Msg("Failed to deduplicate decision")
	} else if !ok {
		util.LogFromContext(ctx).Info().Str("election_id", electionID).Msg("Decision already being processed")
		return nil
	}

	return s.dispatchPhase1(ctx, electionID, decision)
}

// GenerateLocalDescriptors is phase 1. The approval gate is re-checked
// here, at the point the phase actually begins.
func (s *Service) GenerateLocalDescriptors(ctx context.Context, req *Phase1Request) (res *Phase1Result, err error) {
	defer func(start time.Time) { metrics.ObserveStep(ActionGenerateLocalDescriptors, start, err) }(time.Now())

	if err = s.gate.Check(req.Decision); err != nil {
		s.saveState(ctx, req.ElectionID, stateRejected, "")
		return nil, err
	}

	res, err = s.generator.Generate(ctx, req.ElectionID)
	if err != nil {
		return nil, err
	}

	s.saveState(ctx, req.ElectionID, stateDescriptorsReady, "")

	return res, nil
}

// GeneratePublicKey is phase 2 for one session.
func (s *Service) GeneratePublicKey(ctx context.Context, req *Phase2Request) (err error) {
	defer func(start time.Time) { metrics.ObserveStep(ActionGeneratePublicKey, start, err) }(time.Now())

	if err = s.publisher.GeneratePublicKey(ctx, req); err != nil {
		return err
	}

	s.saveState(ctx, req.ElectionID, statePublished, req.SessionID)

	return nil
}

func (s *Service) dispatchPhase1(ctx context.Context, electionID string, decision *ApprovalDecision) error {
	task, err := taskbus.NewTask(ActionGenerateLocalDescriptors, electionID, s.localCert, &Phase1Request{
		ElectionID: electionID,
		Decision:   decision,
	})
	if err != nil {
		return err
	}

	return errors.Wrap(s.bus.Dispatch(ctx, task), "dispatch phase 1")
}

// saveState mirrors ceremony progress into the cache; the mirror is
// best-effort and never fails a step.
func (s *Service) saveState(ctx context.Context, electionID, step, detail string) {
	state := &store.CeremonyState{
		ElectionID: electionID,
		Step:       step,
		Detail:     detail,
		UpdatedAt:  time.Now(),
	}

	if err := s.cache.SaveState(ctx, state, ceremonyStateTTL); err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Str("election_id", electionID).Msg("Failed to mirror ceremony state")
	}
}
