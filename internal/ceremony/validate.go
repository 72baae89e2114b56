package ceremony

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
)

// Validator checks submitted election descriptions. The checks run in a
// fixed order and the first violated rule is reported; nothing is mutated
// on failure.
type Validator struct {
	store        store.Store
	maxQuestions int
}

func NewValidator(st store.Store, maxQuestions int) *Validator {
	return &Validator{
		store:        st,
		maxQuestions: maxQuestions,
	}
}

// CheckElectionData validates an election submission. checkExtra is true
// for first-time public submissions, which additionally carry the callback
// url, extra metadata and the raw question payload, and whose identifier
// must not exist yet.
func (v *Validator) CheckElectionData(ctx context.Context, data *SubmissionData, checkExtra bool) error {
	// 1. required fields of the correct primitive type
	if data.ElectionID == nil {
		return NewError("invalid election_id parameter")
	}
	if data.Title == nil {
		return NewError("invalid title parameter")
	}
	if data.URL == nil {
		return NewError("invalid url parameter")
	}
	if data.Description == nil {
		return NewError("invalid description parameter")
	}
	if data.IsRecurring == nil {
		return NewError("invalid is_recurring parameter")
	}
	if data.Authorities == nil {
		return NewError("invalid authorities parameter")
	}

	// 2. first-time extras; the question payload must be valid serialized
	// structured data in both modes
	if checkExtra {
		if data.CallbackURL == nil {
			return NewError("invalid callback_url parameter")
		}
		if !isJSONList(data.Extra) {
			return NewError("invalid extra parameter")
		}
	}
	questions, err := parseQuestions(data.QuestionsData)
	if err != nil {
		return WrapError(err, "questions_data is not in json")
	}

	// 3. voting window
	if data.VotingStartDate != nil && data.VotingEndDate != nil {
		start := time.Time(*data.VotingStartDate)
		end := time.Time(*data.VotingEndDate)
		if start.After(end) {
			return NewError("invalid voting_start_date parameter")
		}
	}

	// 4. identifier pattern
	if !identifierRe.MatchString(*data.ElectionID) {
		return NewError("invalid characters in election_id")
	}

	// 5. party and question counts
	if len(data.Authorities) == 0 {
		return NewError("no authorities")
	}
	if len(questions) < 1 || len(questions) > v.maxQuestions {
		return NewError("unsupported number of questions in the election")
	}

	// 6. first-time submissions must use a fresh identifier
	if checkExtra {
		exists, err := v.store.ElectionExists(ctx, *data.ElectionID)
		if err != nil {
			return errors.Wrap(err, "check election existence")
		}
		if exists {
			return Errorf("election %s already exists", *data.ElectionID)
		}
	}

	// 7. authority entries
	for _, auth := range data.Authorities {
		if auth == nil || auth.Name == nil {
			return NewError("invalid name parameter")
		}
		if auth.Endpoint == nil {
			return NewError("invalid orchestra_url parameter")
		}
		if auth.Certificate == nil {
			return NewError("invalid ssl_cert parameter")
		}
	}

	// 8. no two authorities may share a certificate or an endpoint
	if !uniqueBy(data.Authorities, func(a *AuthorityData) string { return swag.StringValue(a.Certificate) }) ||
		!uniqueBy(data.Authorities, func(a *AuthorityData) string { return swag.StringValue(a.Endpoint) }) {
		return NewError("invalid authorities parameters")
	}

	return nil
}

// CheckSessionData validates the session list of a ceremony message: at
// least one session, well-formed identifiers, stubs present.
func (v *Validator) CheckSessionData(data *SubmissionData) error {
	if len(data.Sessions) == 0 {
		return NewError("no sessions provided")
	}

	for _, session := range data.Sessions {
		if session == nil || session.ID == nil || session.Stub == nil ||
			*session.Stub == "" || !identifierRe.MatchString(*session.ID) {
			return NewError("invalid session data provided")
		}
	}

	return nil
}

// identifierRe bounds election and session identifiers, which end up as
// directory names and url path segments.
var identifierRe = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// parseQuestions decodes the serialized question payload into its list form.
func parseQuestions(raw *string) ([]json.RawMessage, error) {
	if raw == nil {
		return nil, errors.New("questions_data missing")
	}

	var questions []json.RawMessage
	if err := json.Unmarshal([]byte(*raw), &questions); err != nil {
		return nil, err
	}

	return questions, nil
}

func isJSONList(raw json.RawMessage) bool {
	if raw == nil {
		return false
	}
	var l []json.RawMessage
	return json.Unmarshal(raw, &l) == nil
}

func uniqueBy(authorities []*AuthorityData, key func(*AuthorityData) string) bool {
	seen := make(map[string]struct{}, len(authorities))
	for _, a := range authorities {
		k := key(a)
		if _, ok := seen[k]; ok {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}
