package ceremony

import (
	"encoding/json"

	"github.com/go-openapi/strfmt"
)

// AuthorityData is one authority entry of a submission. Field names follow
// the ceremony wire format.
type AuthorityData struct {
	Name        *string `json:"name"`
	Endpoint    *string `json:"orchestra_url"`
	Certificate *string `json:"ssl_cert"`
}

// SessionData seeds one session: its identifier and the director-provided
// stub descriptor.
type SessionData struct {
	ID   *string `json:"id"`
	Stub *string `json:"stub"`
}

// SubmissionData is the election description as submitted to the public API
// (first-time submission) or carried on the ceremony message that starts a
// performer's participation. Optional and type-checked fields are pointers
// so the validator can tell "absent" from "zero".
type SubmissionData struct {
	ElectionID       *string          `json:"election_id"`
	Title            *string          `json:"title"`
	URL              *string          `json:"url"`
	Description      *string          `json:"description"`
	QuestionsData    *string          `json:"questions_data"`
	VotingStartDate  *strfmt.DateTime `json:"voting_start_date"`
	VotingEndDate    *strfmt.DateTime `json:"voting_end_date"`
	IsRecurring      *bool            `json:"is_recurring"`
	NumParties       int              `json:"num_parties"`
	ThresholdParties int              `json:"threshold_parties"`
	Authorities      []*AuthorityData `json:"authorities"`
	Sessions         []*SessionData   `json:"sessions,omitempty"`

	// first-time submissions only
	CallbackURL *string         `json:"callback_url,omitempty"`
	Extra       json.RawMessage `json:"extra,omitempty"`
}

// SubmissionRequest is a submission as received over the task bus, with the
// sender's certificate attributed by the transport.
type SubmissionRequest struct {
	SenderCert string
	Data       *SubmissionData
}

// DecisionAccepted is the only decision status that lets a gated ceremony
// continue.
const DecisionAccepted = "accepted"

// ApprovalDecision is the operator's out-of-band answer to an approval
// checkpoint.
type ApprovalDecision struct {
	Status string `json:"status"`
}

// Phase1Request asks this node to produce its local descriptors for every
// session of an election. Decision carries the approval outcome, if any;
// the gate is re-checked here because approval happens asynchronously.
type Phase1Request struct {
	ElectionID string            `json:"election_id"`
	Decision   *ApprovalDecision `json:"decision,omitempty"`
}

// Phase1Result is the ordered sequence of local descriptors, one per
// session, reported back to the ceremony director.
type Phase1Result struct {
	Descriptors []string `json:"descriptors"`
}

// Phase2Request asks one authority to generate and publish the keypair of a
// single session from the merged descriptor.
type Phase2Request struct {
	ElectionID       string `json:"election_id"`
	SessionID        string `json:"session_id"`
	MergedDescriptor string `json:"merged_descriptor"`
}
