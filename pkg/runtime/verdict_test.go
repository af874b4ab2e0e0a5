package runtime

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-systems/warden/pkg/actions"
	"github.com/warden-systems/warden/pkg/authority"
	"github.com/warden-systems/warden/pkg/contracts"
)

func fixtures(orgCeiling, domCeiling, autonomy int) (*contracts.Organization, *contracts.Domain, *contracts.Agent) {
	org := &contracts.Organization{ID: "org-1", Name: "Acme", AuthorityCeiling: orgCeiling, Status: contracts.OrgStatusLocked}
	dom := &contracts.Domain{
		ID: "dom-1", OrganizationID: "org-1", Name: "Payments", AuthorityCeiling: domCeiling,
		AllowedCategories: []contracts.ActionCategory{
			contracts.CategoryDataAccess, contracts.CategoryOperations, contracts.CategoryExecution,
		},
	}
	agt := &contracts.Agent{
		ID: "agt-1", DomainID: "dom-1", Name: "ledger-bot", Role: "operations engineer",
		RoleFamily:         contracts.FamilyOperations,
		AutonomyLevel:      autonomy,
		ExecutionSurface:   contracts.SurfaceExecute,
		ExecutionType:      contracts.TypeExecution,
		EscalationBehavior: contracts.EscalationHumanRequired,
	}
	return org, dom, agt
}

func deriveAction(agt *contracts.Agent, auth *contracts.AuthorityResult, name string) contracts.DoAction {
	for _, da := range actions.DeriveDoActions(agt, auth) {
		if da.Spec.Name == name {
			return da
		}
	}
	panic("unknown action " + name)
}

func TestDeriveVerdict_DecisionMapping(t *testing.T) {
	org, dom, agt := fixtures(3, 3, 3)
	auth := authority.DeriveAgent(org, dom, agt)

	allowed := DeriveVerdict(org, dom, agt, deriveAction(agt, auth, "restart_service"), auth)
	assert.Equal(t, contracts.VerdictAllowed, allowed.Decision.Status)
	assert.Equal(t, contracts.ConfidenceHigh, allowed.Decision.Confidence)
	assert.Nil(t, allowed.Escalation)

	org2, dom2, agt2 := fixtures(3, 2, 2)
	auth2 := authority.DeriveAgent(org2, dom2, agt2)
	restricted := DeriveVerdict(org2, dom2, agt2, deriveAction(agt2, auth2, "provision_infrastructure"), auth2)
	assert.Equal(t, contracts.VerdictEscalationRequired, restricted.Decision.Status)
	assert.Equal(t, contracts.ConfidenceMedium, restricted.Decision.Confidence)
	require.NotNil(t, restricted.Escalation)
	assert.Equal(t, "Human Operator", restricted.Escalation.ApproverRole)

	org3, dom3, agt3 := fixtures(3, 1, 1)
	auth3 := authority.DeriveAgent(org3, dom3, agt3)
	blocked := DeriveVerdict(org3, dom3, agt3, deriveAction(agt3, auth3, "provision_infrastructure"), auth3)
	assert.Equal(t, contracts.VerdictBlocked, blocked.Decision.Status)
	assert.Equal(t, contracts.ConfidenceHigh, blocked.Decision.Confidence)
}

func TestDeriveVerdict_ApproverRoleMapping(t *testing.T) {
	assert.Equal(t, "Human Operator", ApproverRoleFor(contracts.EscalationHumanRequired))
	assert.Equal(t, "Domain Administrator", ApproverRoleFor(contracts.EscalationAuto))
}

func TestDeriveVerdict_ConstraintCanonicalOrder(t *testing.T) {
	org, dom, agt := fixtures(1, 1, 1)
	auth := authority.DeriveAgent(org, dom, agt)
	verdict := DeriveVerdict(org, dom, agt, deriveAction(agt, auth, "provision_infrastructure"), auth)

	require.NotEmpty(t, verdict.AppliedConstraints)

	// Sources appear in canonical order: ORGANIZATION, DOMAIN, AGENT, EAPP,
	// RUNTIME. The ordering is positional, not just set membership.
	order := map[contracts.ConstraintSource]int{
		contracts.SourceOrganization: 0,
		contracts.SourceDomain:       1,
		contracts.SourceAgent:        2,
		contracts.SourceEAPP:         3,
		contracts.SourceRuntime:      4,
	}
	last := -1
	for _, c := range verdict.AppliedConstraints {
		rank, ok := order[c.Source]
		require.True(t, ok, "unknown source %s", c.Source)
		assert.GreaterOrEqual(t, rank, last)
		if rank > last {
			last = rank
		}
	}

	final := verdict.AppliedConstraints[len(verdict.AppliedConstraints)-1]
	assert.Equal(t, contracts.SourceRuntime, final.Source)
	assert.Equal(t, "no execution permitted in this phase", final.Description)
}

func TestDeriveVerdict_RuntimeConstraintAlwaysPresent(t *testing.T) {
	org, dom, agt := fixtures(3, 3, 3)
	auth := authority.DeriveAgent(org, dom, agt)
	verdict := DeriveVerdict(org, dom, agt, deriveAction(agt, auth, "read_runbook"), auth)

	found := false
	for _, c := range verdict.AppliedConstraints {
		if c.Source == contracts.SourceRuntime {
			found = true
			assert.Equal(t, "no execution permitted in this phase", c.Description)
		}
	}
	assert.True(t, found)
}

func TestDeriveVerdict_ExecutionGuarantees(t *testing.T) {
	org, dom, agt := fixtures(3, 3, 3)
	auth := authority.DeriveAgent(org, dom, agt)
	verdict := DeriveVerdict(org, dom, agt, deriveAction(agt, auth, "restart_service"), auth)

	assert.True(t, verdict.Execution.Attempted)
	assert.False(t, verdict.Execution.Executed)
	assert.Nil(t, verdict.Execution.ExecutionPath)
}

func TestDeriveVerdict_Deterministic(t *testing.T) {
	org, dom, agt := fixtures(3, 2, 2)
	auth := authority.DeriveAgent(org, dom, agt)
	action := deriveAction(agt, auth, "provision_infrastructure")

	first := DeriveVerdict(org, dom, agt, action, auth)
	second := DeriveVerdict(org, dom, agt, action, auth)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.VerdictID, second.VerdictID)
	assert.True(t, reflect.DeepEqual(first, second))
}
