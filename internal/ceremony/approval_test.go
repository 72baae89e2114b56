package ceremony_test

import (
	"testing"

	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateAutoAccept(t *testing.T) {
	g := ceremony.NewGate(true)

	assert.False(t, g.Required())
	require.NoError(t, g.Check(nil))
	require.NoError(t, g.Check(&ceremony.ApprovalDecision{Status: "rejected"}))
}

func TestGateRequiresExplicitAcceptance(t *testing.T) {
	g := ceremony.NewGate(false)

	assert.True(t, g.Required())
	require.NoError(t, g.Check(&ceremony.ApprovalDecision{Status: ceremony.DecisionAccepted}))

	for _, decision := range []*ceremony.ApprovalDecision{
		nil,
		{Status: ""},
		{Status: "rejected"},
		{Status: "Accepted"},
	} {
		err := g.Check(decision)
		require.Error(t, err)
		assert.Equal(t, "task not accepted", ceremony.ReasonOf(err))
	}
}

func TestPromptContainsSummaryFields(t *testing.T) {
	prompt := ceremony.Prompt(validSubmission())

	assert.Contains(t, prompt, "* URL: https://example.com/election")
	assert.Contains(t, prompt, "* Title: Example election")
	assert.Contains(t, prompt, "* Description: An example")
	assert.Contains(t, prompt, "* Voting period: 2026-09-01T08:00:00Z - 2026-09-02T20:00:00Z")
	assert.Contains(t, prompt, `"question": "Who?"`)
	assert.Contains(t, prompt, `"name": "alpha"`)
	assert.Contains(t, prompt, `"orchestra_url": "https://beta/api/queues"`)
}
