package elections_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agoravoting/election-orchestra/internal/api"
	"github.com/agoravoting/election-orchestra/internal/api/router"
	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/mailer"
	"github.com/agoravoting/election-orchestra/internal/mailer/transport"
	"github.com/agoravoting/election-orchestra/internal/mixnet"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/agoravoting/election-orchestra/internal/taskbus"
	"github.com/dropbox/godropbox/time2"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine writes the files the mixnet binaries would produce.
type stubEngine struct{}

func (stubEngine) GenerateProtocolStub(_ context.Context, req *mixnet.StubRequest) error {
	return os.WriteFile(filepath.Join(req.SessionDir, mixnet.StubFile), []byte("stub"), 0o600)
}

func (stubEngine) GenerateLocalDescriptor(_ context.Context, req *mixnet.DescriptorRequest) (string, error) {
	path := filepath.Join(req.SessionDir, mixnet.LocalDescriptorFile)
	return "descriptor", os.WriteFile(path, []byte("descriptor"), 0o600)
}

func (stubEngine) GenerateKeyPair(_ context.Context, sessionDir string) error {
	if err := os.WriteFile(filepath.Join(sessionDir, mixnet.RawKeyFile), []byte("raw"), 0o600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(sessionDir, mixnet.EncodedKeyFile), []byte("encoded"), 0o600)
}

// newTestServer wires a full server around the in-memory store, acting as
// the "alpha" authority with auto-accept enabled.
func newTestServer(t *testing.T) *api.Server {
	t.Helper()

	cfg := config.Server{
		Authority: config.Authority{
			RootURL:       "https://alpha/api/queues",
			ServerURL:     "https://alpha:4041",
			HintServerURL: "alpha:4042",
		},
		Ceremony: config.Ceremony{
			AutoAcceptRequests:      true,
			MaxQuestionsPerElection: 10,
		},
		Paths: config.Paths{
			PrivateDataPath: filepath.Join(t.TempDir(), "private"),
			PublicDataPath:  filepath.Join(t.TempDir(), "public"),
		},
		Echo: config.EchoServer{
			HideInternalServerErrorDetails: true,
			EnableRecoverMiddleware:        true,
		},
		Mailer: config.Mailer{DefaultSender: "orchestra@example.com"},
	}

	s := api.NewServer(cfg)
	s.Store = store.NewMemoryStore(time2.NewMockClock(time.Now()))
	s.Cache = store.NewNoopCache()
	s.Mailer = mailer.New(cfg.Mailer, transport.NewMock())
	s.Engine = stubEngine{}
	s.Bus = taskbus.NewLocalBus(8)
	s.Ceremony = ceremony.NewService(cfg, "cert-alpha", ceremony.ByteEquality{}, s.Store, s.Cache, s.Bus, s.Engine, s.Mailer)
	ceremony.RegisterHandlers(s.Bus, s.Ceremony)

	router.Init(s)

	t.Cleanup(s.Bus.Close)

	return s
}

func submissionBody(t *testing.T) []byte {
	t.Helper()

	start := strfmt.DateTime(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	end := strfmt.DateTime(time.Date(2026, 9, 2, 20, 0, 0, 0, time.UTC))

	body, err := json.Marshal(&ceremony.SubmissionData{
		ElectionID:      swag.String("E1"),
		Title:           swag.String("Example election"),
		URL:             swag.String("https://example.com/election"),
		Description:     swag.String("An example"),
		QuestionsData:   swag.String(`[{"question": "Who?"}]`),
		VotingStartDate: &start,
		VotingEndDate:   &end,
		IsRecurring:     swag.Bool(false),
		Authorities: []*ceremony.AuthorityData{
			{
				Name:        swag.String("alpha"),
				Endpoint:    swag.String("https://alpha/api/queues"),
				Certificate: swag.String("cert-alpha"),
			},
			{
				Name:        swag.String("beta"),
				Endpoint:    swag.String("https://beta/api/queues"),
				Certificate: swag.String("cert-beta"),
			},
		},
		CallbackURL: swag.String("https://example.com/callback"),
		Extra:       []byte(`[]`),
	})
	require.NoError(t, err)

	return body
}

func doRequest(s *api.Server, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	return rec
}

func TestPostCreateElection(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/elections", submissionBody(t))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "E1", response["election_id"])
	assert.Equal(t, "accepted", response["status"])

	election, err := s.Store.GetElection(t.Context(), "E1")
	require.NoError(t, err)
	assert.Equal(t, "Example election", election.Title)

	// resubmitting the same identifier is refused
	rec = doRequest(s, http.MethodPost, "/api/v1/elections", submissionBody(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var httpErr map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	assert.Equal(t, "election E1 already exists", httpErr["title"])
}

func TestPostCreateElectionValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/elections", []byte("{"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body ceremony.SubmissionData
	require.NoError(t, json.Unmarshal(submissionBody(t), &body))
	body.Authorities = []*ceremony.AuthorityData{}

	payload, err := json.Marshal(&body)
	require.NoError(t, err)

	rec = doRequest(s, http.MethodPost, "/api/v1/elections", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var httpErr map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	assert.Equal(t, "no authorities", httpErr["title"])
}

func TestGetElection(t *testing.T) {
	s := newTestServer(t)
	ctx := t.Context()

	rec := doRequest(s, http.MethodGet, "/api/v1/elections/E1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.Store.CreateElection(ctx,
		&store.Election{ID: "E1", Title: "Example election"},
		[]*store.Authority{{Name: "alpha", ElectionID: "E1"}},
		[]*store.Session{
			{ID: "E1-0", ElectionID: "E1", Ordinal: 0, Status: store.SessionStatusPublished, PublicKey: "pk"},
			{ID: "E1-1", ElectionID: "E1", Ordinal: 1, Status: store.SessionStatusDefault},
		}))

	rec = doRequest(s, http.MethodGet, "/api/v1/elections/E1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		ElectionID string `json:"election_id"`
		Title      string `json:"title"`
		Sessions   []struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			PublicKey string `json:"public_key"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "E1", response.ElectionID)
	assert.Equal(t, "Example election", response.Title)
	require.Len(t, response.Sessions, 2)
	assert.Equal(t, "E1-0", response.Sessions[0].ID)
	assert.Equal(t, "published", response.Sessions[0].Status)
	assert.Equal(t, "pk", response.Sessions[0].PublicKey)
	assert.Equal(t, "default", response.Sessions[1].Status)
}

func TestPostApprovalDecision(t *testing.T) {
	s := newTestServer(t)

	payload := []byte(fmt.Sprintf(`{"status": %q}`, ceremony.DecisionAccepted))

	rec := doRequest(s, http.MethodPost, "/api/v1/elections/nope/approval", payload)
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.Store.CreateElection(t.Context(),
		&store.Election{ID: "E1"}, nil,
		[]*store.Session{{ID: "E1-0", ElectionID: "E1"}}))

	rec = doRequest(s, http.MethodPost, "/api/v1/elections/E1/approval", payload)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}
