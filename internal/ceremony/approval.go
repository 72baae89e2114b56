package ceremony

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
)

// Gate is the optional human checkpoint between bootstrap and phase 1.
// With auto-accept enabled it is transparent; otherwise the ceremony stays
// suspended until an explicit decision arrives out-of-band, and the gate is
// re-checked at the moment phase 1 actually starts.
type Gate struct {
	autoAccept bool
}

func NewGate(autoAccept bool) *Gate {
	return &Gate{autoAccept: autoAccept}
}

// Required reports whether a ceremony needs operator approval at all.
func (g *Gate) Required() bool {
	return !g.autoAccept
}

// Check decides whether phase 1 may proceed. Anything short of an explicit
// "accepted" decision fails the ceremony.
func (g *Gate) Check(decision *ApprovalDecision) error {
	if g.autoAccept {
		return nil
	}
	if decision == nil || decision.Status != DecisionAccepted {
		return NewError("task not accepted")
	}
	return nil
}

// Prompt renders the election summary presented to the operator.
func Prompt(data *SubmissionData) string {
	questions := indentJSONString(swag.StringValue(data.QuestionsData))
	authorities := indentJSON(data.Authorities)

	return fmt.Sprintf(`* URL: %s
* Title: %s
* Description: %s
* Voting period: %s - %s
* Question data: %s
* Authorities: %s`,
		swag.StringValue(data.URL),
		swag.StringValue(data.Title),
		swag.StringValue(data.Description),
		dateString(data.VotingStartDate),
		dateString(data.VotingEndDate),
		questions,
		authorities)
}

func dateString(dt *strfmt.DateTime) string {
	if dt == nil {
		return ""
	}
	return time.Time(*dt).Format(time.RFC3339)
}

// indentJSONString re-renders a serialized JSON document with indentation.
func indentJSONString(raw string) string {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return indentJSON(v)
}

func indentJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(string(out))
}
