package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-systems/warden/pkg/authority"
	"github.com/warden-systems/warden/pkg/contracts"
)

type vetoingAligner struct{ reason string }

func (a vetoingAligner) Aligned(*contracts.Agent, contracts.ActionSpec) (bool, string) {
	return false, a.reason
}

func deriveAll(t *testing.T, orgCeiling, domCeiling, autonomy int, name string) (*contracts.Organization, *contracts.Domain, *contracts.Agent, contracts.DoAction, *contracts.AuthorityResult, *contracts.RuntimeVerdict) {
	t.Helper()
	org, dom, agt := fixtures(orgCeiling, domCeiling, autonomy)
	auth := authority.DeriveAgent(org, dom, agt)
	action := deriveAction(agt, auth, name)
	verdict := DeriveVerdict(org, dom, agt, action, auth)
	return org, dom, agt, action, auth, verdict
}

func TestDeriveReadiness_Automatic(t *testing.T) {
	_, dom, agt, action, auth, verdict := deriveAll(t, 3, 3, 3, "restart_service")

	readiness := DeriveReadiness(agt, dom, action, auth, verdict, nil)

	assert.Equal(t, contracts.ReadinessAutomatic, readiness.State)
	assert.Equal(t, SummaryAutomatic, readiness.Summary)
	assert.True(t, readiness.Gates.AuthorityAlignment.Passed)
	assert.True(t, readiness.Gates.ActionSurfaceCompatibility.Passed)
	assert.True(t, readiness.Gates.EscalationResolution.Passed)
	assert.True(t, readiness.Gates.PersonaAlignment.Passed)
}

func TestDeriveReadiness_PendingApproval(t *testing.T) {
	_, dom, agt, action, auth, verdict := deriveAll(t, 3, 2, 2, "provision_infrastructure")
	require.Equal(t, contracts.VerdictEscalationRequired, verdict.Decision.Status)

	readiness := DeriveReadiness(agt, dom, action, auth, verdict, nil)

	// The authority gate fails (effective 2 < required 3), so the overall
	// state is NOT_ELIGIBLE even though escalation is resolvable.
	assert.Equal(t, contracts.ReadinessNotEligible, readiness.State)
	assert.False(t, readiness.Gates.AuthorityAlignment.Passed)
	assert.True(t, readiness.Gates.EscalationResolution.Passed)
}

func TestDeriveReadiness_PendingApprovalWhenGatesPass(t *testing.T) {
	// Craft a verdict that requires escalation while every gate passes:
	// action requirement within authority, surface compatible.
	org, dom, agt := fixtures(3, 3, 2)
	auth := authority.DeriveAgent(org, dom, agt)
	action := contracts.DoAction{
		Spec: contracts.ActionSpec{
			Name: "restart_service", Category: contracts.CategoryExecution,
			RequiredAuthority: 2, RequiredSurface: contracts.SurfaceExecute,
		},
		State:  contracts.ActionRestricted,
		Reason: "effective authority 2 is one level below the required 3; escalation required",
	}
	verdict := DeriveVerdict(org, dom, agt, action, auth)
	require.Equal(t, contracts.VerdictEscalationRequired, verdict.Decision.Status)

	readiness := DeriveReadiness(agt, dom, action, auth, verdict, nil)

	assert.Equal(t, contracts.ReadinessPendingApproval, readiness.State)
	assert.Equal(t, SummaryPendingApproval, readiness.Summary)
}

func TestDeriveReadiness_BlockedHardShortCircuits(t *testing.T) {
	org, dom, agt := fixtures(3, 1, 1)
	agt.ExecutionSurface = contracts.SurfaceRead
	auth := authority.DeriveAgent(org, dom, agt)
	action := contracts.DoAction{
		Spec: contracts.ActionSpec{
			Name: "provision_infrastructure", Category: contracts.CategoryExecution,
			RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute,
		},
		State: contracts.ActionBlocked,
	}
	verdict := DeriveVerdict(org, dom, agt, action, auth)

	// Even with a failing persona gate, the double authority+surface
	// failure folds to BLOCKED_HARD.
	readiness := DeriveReadiness(agt, dom, action, auth, verdict, vetoingAligner{reason: "misaligned"})

	assert.Equal(t, contracts.ReadinessBlockedHard, readiness.State)
	assert.Equal(t, SummaryBlockedHard, readiness.Summary)
	assert.False(t, readiness.Gates.AuthorityAlignment.Passed)
	assert.False(t, readiness.Gates.ActionSurfaceCompatibility.Passed)
}

func TestDeriveReadiness_SingleGateFailure(t *testing.T) {
	_, dom, agt, action, auth, verdict := deriveAll(t, 3, 3, 3, "restart_service")

	readiness := DeriveReadiness(agt, dom, action, auth, verdict, vetoingAligner{reason: "persona mismatch"})

	assert.Equal(t, contracts.ReadinessNotEligible, readiness.State)
	assert.Equal(t, SummaryNotEligible, readiness.Summary)
	assert.False(t, readiness.Gates.PersonaAlignment.Passed)
	assert.Equal(t, "persona mismatch", readiness.Gates.PersonaAlignment.Reason)
}

func TestDeriveReadiness_DomainCategoryGate(t *testing.T) {
	org, dom, agt := fixtures(3, 3, 3)
	dom.AllowedCategories = []contracts.ActionCategory{contracts.CategoryDataAccess}
	auth := authority.DeriveAgent(org, dom, agt)
	action := deriveAction(agt, auth, "restart_service")
	verdict := DeriveVerdict(org, dom, agt, action, auth)

	readiness := DeriveReadiness(agt, dom, action, auth, verdict, nil)

	assert.Equal(t, contracts.ReadinessNotEligible, readiness.State)
	assert.False(t, readiness.Gates.AuthorityAlignment.Passed)
	assert.Contains(t, readiness.Gates.AuthorityAlignment.Reason, "does not allow EXECUTION actions")
}

func TestDeriveReadiness_CanonicalSummaries(t *testing.T) {
	assert.Equal(t, "Execution is not eligible: one or more readiness gates failed.", SummaryNotEligible)
	assert.Equal(t, "Execution is eligible pending human approval of the required escalation.", SummaryPendingApproval)
	assert.Equal(t, "Execution is eligible automatically: all readiness gates passed and no escalation is required.", SummaryAutomatic)
	assert.Equal(t, "Execution is hard-blocked: authority and action surface are both incompatible.", SummaryBlockedHard)
}
