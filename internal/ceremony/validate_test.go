package ceremony_test

import (
	"testing"
	"time"

	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/dropbox/godropbox/time2"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(t time.Time) *strfmt.DateTime {
	dt := strfmt.DateTime(t)
	return &dt
}

// validSubmission returns a submission passing every check in first-time
// mode.
func validSubmission() *ceremony.SubmissionData {
	return &ceremony.SubmissionData{
		ElectionID:      swag.String("E1"),
		Title:           swag.String("Example election"),
		URL:             swag.String("https://example.com/election"),
		Description:     swag.String("An example"),
		QuestionsData:   swag.String(`[{"question": "Who?"}]`),
		VotingStartDate: datePtr(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)),
		VotingEndDate:   datePtr(time.Date(2026, 9, 2, 20, 0, 0, 0, time.UTC)),
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
	}
}

func newValidator(t *testing.T) (*ceremony.Validator, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(time2.NewMockClock(time.Now()))
	return ceremony.NewValidator(st, 10), st
}

func TestCheckElectionDataAccepts(t *testing.T) {
	v, _ := newValidator(t)
	require.NoError(t, v.CheckElectionData(t.Context(), validSubmission(), true))
	require.NoError(t, v.CheckElectionData(t.Context(), validSubmission(), false))
}

func TestCheckElectionDataRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ceremony.SubmissionData)
		reason string
	}{
		{"missing election_id", func(d *ceremony.SubmissionData) { d.ElectionID = nil }, "invalid election_id parameter"},
		{"missing title", func(d *ceremony.SubmissionData) { d.Title = nil }, "invalid title parameter"},
		{"missing url", func(d *ceremony.SubmissionData) { d.URL = nil }, "invalid url parameter"},
		{"missing description", func(d *ceremony.SubmissionData) { d.Description = nil }, "invalid description parameter"},
		{"missing is_recurring", func(d *ceremony.SubmissionData) { d.IsRecurring = nil }, "invalid is_recurring parameter"},
		{"missing authorities", func(d *ceremony.SubmissionData) { d.Authorities = nil }, "invalid authorities parameter"},
		{"missing callback_url", func(d *ceremony.SubmissionData) { d.CallbackURL = nil }, "invalid callback_url parameter"},
		{"invalid extra", func(d *ceremony.SubmissionData) { d.Extra = []byte(`"nope"`) }, "invalid extra parameter"},
		{"unparsable questions", func(d *ceremony.SubmissionData) { d.QuestionsData = swag.String("{") }, "questions_data is not in json"},
		{"bad voting window", func(d *ceremony.SubmissionData) {
			d.VotingStartDate, d.VotingEndDate = d.VotingEndDate, d.VotingStartDate
		}, "invalid voting_start_date parameter"},
		{"bad identifier", func(d *ceremony.SubmissionData) { d.ElectionID = swag.String("e/1") }, "invalid characters in election_id"},
		{"empty authorities", func(d *ceremony.SubmissionData) { d.Authorities = []*ceremony.AuthorityData{} }, "no authorities"},
		{"zero questions", func(d *ceremony.SubmissionData) { d.QuestionsData = swag.String(`[]`) }, "unsupported number of questions in the election"},
		{"authority without name", func(d *ceremony.SubmissionData) { d.Authorities[1].Name = nil }, "invalid name parameter"},
		{"authority without endpoint", func(d *ceremony.SubmissionData) { d.Authorities[1].Endpoint = nil }, "invalid orchestra_url parameter"},
		{"authority without certificate", func(d *ceremony.SubmissionData) { d.Authorities[1].Certificate = nil }, "invalid ssl_cert parameter"},
		{"duplicate certificate", func(d *ceremony.SubmissionData) { d.Authorities[1].Certificate = d.Authorities[0].Certificate }, "invalid authorities parameters"},
		{"duplicate endpoint", func(d *ceremony.SubmissionData) { d.Authorities[1].Endpoint = d.Authorities[0].Endpoint }, "invalid authorities parameters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newValidator(t)

			data := validSubmission()
			tt.mutate(data)

			err := v.CheckElectionData(t.Context(), data, true)
			require.Error(t, err)
			assert.Equal(t, tt.reason, ceremony.ReasonOf(err))
		})
	}
}

func TestCheckElectionDataTooManyQuestions(t *testing.T) {
	st := store.NewMemoryStore(time2.NewMockClock(time.Now()))
	v := ceremony.NewValidator(st, 1)

	data := validSubmission()
	data.QuestionsData = swag.String(`[{"q": 1}, {"q": 2}]`)

	err := v.CheckElectionData(t.Context(), data, false)
	require.Error(t, err)
	assert.Equal(t, "unsupported number of questions in the election", ceremony.ReasonOf(err))
}

func TestCheckElectionDataExistingIdentifier(t *testing.T) {
	v, st := newValidator(t)

	require.NoError(t, st.CreateElection(t.Context(), &store.Election{ID: "E1"}, nil, nil))

	err := v.CheckElectionData(t.Context(), validSubmission(), true)
	require.Error(t, err)
	assert.Equal(t, "election E1 already exists", ceremony.ReasonOf(err))

	// performer-side re-validation does not consult the store
	require.NoError(t, v.CheckElectionData(t.Context(), validSubmission(), false))
}

func TestCheckElectionDataExtrasIgnoredOnRevalidation(t *testing.T) {
	v, _ := newValidator(t)

	data := validSubmission()
	data.CallbackURL = nil
	data.Extra = nil

	require.NoError(t, v.CheckElectionData(t.Context(), data, false))
}

func TestCheckSessionData(t *testing.T) {
	v, _ := newValidator(t)

	data := validSubmission()
	err := v.CheckSessionData(data)
	require.Error(t, err)
	assert.Equal(t, "no sessions provided", ceremony.ReasonOf(err))

	data.Sessions = []*ceremony.SessionData{{ID: swag.String("S1"), Stub: swag.String("stub")}}
	require.NoError(t, v.CheckSessionData(data))

	data.Sessions = []*ceremony.SessionData{{ID: swag.String("S 1"), Stub: swag.String("stub")}}
	err = v.CheckSessionData(data)
	require.Error(t, err)
	assert.Equal(t, "invalid session data provided", ceremony.ReasonOf(err))

	data.Sessions = []*ceremony.SessionData{{ID: swag.String("S1"), Stub: swag.String("")}}
	assert.Equal(t, "invalid session data provided", ceremony.ReasonOf(v.CheckSessionData(data)))
}
