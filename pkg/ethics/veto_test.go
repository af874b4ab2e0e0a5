package ethics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-systems/warden/pkg/contracts"
)

func committedAgent(commitments ...string) *contracts.Agent {
	return &contracts.Agent{
		ID: "agt-1", Name: "ledger-bot",
		Commitments: commitments,
	}
}

func TestEvaluate_BlocksOnKeywordHit(t *testing.T) {
	agent := committedAgent("must not delete customer records")

	verdict := Evaluate(agent, ActionDescriptor{
		Type:        "OPERATIONS",
		Description: "delete stale records from the archive",
	})

	require.True(t, verdict.Blocked())
	assert.Equal(t, EthicsBlocked, verdict.Status)
	assert.Equal(t, "must not delete customer records", verdict.ViolatedCommitment)
	assert.Equal(t,
		`This action conflicts with the agent's ethical commitment to "must not delete customer records"; this restriction cannot be overridden.`,
		verdict.Explanation)
}

func TestEvaluate_AllowsWhenNoNegation(t *testing.T) {
	agent := committedAgent("always act in the customer's interest")

	verdict := Evaluate(agent, ActionDescriptor{Description: "act on customer request"})

	assert.Equal(t, EthicsAllowed, verdict.Status)
	assert.False(t, verdict.Blocked())
}

func TestEvaluate_AllowsWhenKeywordsMiss(t *testing.T) {
	agent := committedAgent("never transfer funds without approval")

	verdict := Evaluate(agent, ActionDescriptor{Description: "compile a weekly report"})

	assert.Equal(t, EthicsAllowed, verdict.Status)
}

func TestEvaluate_ShortAndStopWordsIgnored(t *testing.T) {
	// Every keyword in the restriction is either too short or a stop word,
	// so nothing can match.
	agent := committedAgent("must not do it to them")

	verdict := Evaluate(agent, ActionDescriptor{Description: "do it to them"})

	assert.Equal(t, EthicsAllowed, verdict.Status)
}

func TestEvaluate_NegationPatternVariants(t *testing.T) {
	patterns := []string{
		"cannot disclose personal data",
		"never disclose personal data",
		"must not disclose personal data",
		"not allowed to disclose personal data",
		"forbidden to disclose personal data",
		"prohibited from disclosing personal data",
	}
	for _, commitment := range patterns {
		verdict := Evaluate(committedAgent(commitment), ActionDescriptor{
			Description: "disclose personal metrics to a partner",
		})
		assert.True(t, verdict.Blocked(), "commitment %q should block", commitment)
	}
}

func TestEvaluate_OperationalConstraintsScannedToo(t *testing.T) {
	agent := &contracts.Agent{
		ID: "agt-1", Name: "ledger-bot",
		OperationalConstraints: []string{"cannot modify production configuration"},
	}

	verdict := Evaluate(agent, ActionDescriptor{Description: "modify production flags"})

	assert.True(t, verdict.Blocked())
}

func TestEvaluate_FirstViolationWins(t *testing.T) {
	agent := committedAgent(
		"must not delete customer records",
		"never delete audit history",
	)

	verdict := Evaluate(agent, ActionDescriptor{Description: "delete customer and audit entries"})

	assert.Equal(t, "must not delete customer records", verdict.ViolatedCommitment)
}

func TestVetoAligner(t *testing.T) {
	agent := committedAgent("must not transfer funds autonomously")

	ok, reason := Veto{}.Aligned(agent, contracts.ActionSpec{
		Name: "transfer_funds", Category: contracts.CategoryExecution,
	})
	assert.False(t, ok)
	assert.Contains(t, reason, "cannot be overridden")

	ok, _ = Veto{}.Aligned(agent, contracts.ActionSpec{
		Name: "read_ledger", Category: contracts.CategoryDataAccess,
	})
	assert.True(t, ok)
}
