package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-systems/warden/pkg/contracts"
)

func agentWith(surface contracts.ExecutionSurface, execType contracts.ExecutionType, family contracts.RoleFamily) *contracts.Agent {
	return &contracts.Agent{
		ID: "agt-1", Name: "probe", RoleFamily: family,
		ExecutionSurface: surface, ExecutionType: execType,
		EscalationBehavior: contracts.EscalationAuto,
	}
}

func authAt(level int) *contracts.AuthorityResult {
	return &contracts.AuthorityResult{EffectiveAuthorityLevel: level}
}

func TestEvaluate_SurfaceCheckWinsFirst(t *testing.T) {
	writeAction := contracts.ActionSpec{
		Name: "update_records", Category: contracts.CategoryOperations,
		RequiredAuthority: 2, RequiredSurface: contracts.SurfaceWrite,
	}

	// READ agent against a WRITE-required action: blocked with the
	// read-restriction reason even though authority would also fail.
	state, reason := Evaluate(writeAction, 0, contracts.SurfaceRead, contracts.TypeExecution)
	assert.Equal(t, contracts.ActionBlocked, state)
	assert.Equal(t, "this action requires write access; the agent is restricted to reading information", reason)

	// The same agent against an EXECUTE-required action takes the stronger
	// surface-mismatch branch.
	execAction := contracts.ActionSpec{
		Name: "run_task", Category: contracts.CategoryExecution,
		RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute,
	}
	state, reason = Evaluate(execAction, 0, contracts.SurfaceRead, contracts.TypeExecution)
	assert.Equal(t, contracts.ActionBlocked, state)
	assert.Equal(t, "execution requires an EXECUTE surface; the agent is restricted to reading information", reason)

	state, reason = Evaluate(execAction, 3, contracts.SurfaceWrite, contracts.TypeExecution)
	assert.Equal(t, contracts.ActionBlocked, state)
	assert.Equal(t, "this action requires an EXECUTE surface; the agent is limited to write access", reason)
}

func TestEvaluate_TypeCheck(t *testing.T) {
	analysis := contracts.ActionSpec{
		Name: "run_analysis", Category: contracts.CategoryAnalysis,
		RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead,
	}
	state, reason := Evaluate(analysis, 3, contracts.SurfaceExecute, contracts.TypeAdvisory)
	assert.Equal(t, contracts.ActionBlocked, state)
	assert.Equal(t, "advisory agents are limited to data access and reporting", reason)

	ops := contracts.ActionSpec{
		Name: "update_configuration", Category: contracts.CategoryOperations,
		RequiredAuthority: 1, RequiredSurface: contracts.SurfaceWrite,
	}
	state, reason = Evaluate(ops, 3, contracts.SurfaceExecute, contracts.TypeDecision)
	assert.Equal(t, contracts.ActionBlocked, state)
	assert.Equal(t, "decision agents cannot perform execution or operations actions", reason)

	// EXECUTION agents carry no type restriction.
	state, _ = Evaluate(ops, 3, contracts.SurfaceExecute, contracts.TypeExecution)
	assert.Equal(t, contracts.ActionAllowed, state)
}

func TestEvaluate_AuthorityGap(t *testing.T) {
	spec := contracts.ActionSpec{
		Name: "deploy_service", Category: contracts.CategoryExecution,
		RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute,
	}

	state, _ := Evaluate(spec, 3, contracts.SurfaceExecute, contracts.TypeExecution)
	assert.Equal(t, contracts.ActionAllowed, state)

	state, reason := Evaluate(spec, 2, contracts.SurfaceExecute, contracts.TypeExecution)
	assert.Equal(t, contracts.ActionRestricted, state)
	assert.Contains(t, reason, "escalation required")

	state, _ = Evaluate(spec, 1, contracts.SurfaceExecute, contracts.TypeExecution)
	assert.Equal(t, contracts.ActionBlocked, state)
}

func TestDeriveSurface_FixedOrder(t *testing.T) {
	agent := agentWith(contracts.SurfaceExecute, contracts.TypeExecution, contracts.FamilyGeneral)
	surface := DeriveSurface(agent, authAt(3))

	require.Len(t, surface.Entries, 5)
	assert.Equal(t, contracts.SurfaceCategoryRead, surface.Entries[0].Category)
	assert.Equal(t, contracts.SurfaceCategoryWrite, surface.Entries[1].Category)
	assert.Equal(t, contracts.SurfaceCategoryDecide, surface.Entries[2].Category)
	assert.Equal(t, contracts.SurfaceCategoryExecute, surface.Entries[3].Category)
	assert.Equal(t, contracts.SurfaceCategoryEscalate, surface.Entries[4].Category)

	for _, e := range surface.Entries {
		assert.Equal(t, contracts.ActionAllowed, e.State, "category %s", e.Category)
	}
}

func TestDeriveSurface_ReadOnlyAdvisory(t *testing.T) {
	agent := agentWith(contracts.SurfaceRead, contracts.TypeAdvisory, contracts.FamilyGeneral)
	surface := DeriveSurface(agent, authAt(1))

	read := surface.Entry(contracts.SurfaceCategoryRead)
	require.NotNil(t, read)
	assert.Equal(t, contracts.ActionAllowed, read.State)

	write := surface.Entry(contracts.SurfaceCategoryWrite)
	require.NotNil(t, write)
	assert.Equal(t, contracts.ActionBlocked, write.State)

	// DECIDE fails the type check before authority is even considered.
	decide := surface.Entry(contracts.SurfaceCategoryDecide)
	require.NotNil(t, decide)
	assert.Equal(t, contracts.ActionBlocked, decide.State)
	assert.Equal(t, "advisory agents are limited to data access and reporting", decide.Reason)
}

func TestDeriveDoActions_RoleCatalog(t *testing.T) {
	agent := agentWith(contracts.SurfaceExecute, contracts.TypeExecution, contracts.FamilyEngineering)
	doActions := DeriveDoActions(agent, authAt(2))

	require.Len(t, doActions, len(CatalogFor(contracts.FamilyEngineering)))

	byName := map[string]contracts.DoAction{}
	for _, da := range doActions {
		byName[da.Spec.Name] = da
	}

	assert.Equal(t, contracts.ActionAllowed, byName["merge_change"].State)
	assert.Equal(t, contracts.ActionAllowed, byName["run_pipeline"].State)
	assert.Equal(t, contracts.ActionRestricted, byName["deploy_service"].State)
}

func TestDeriveDoActions_FallbackCatalog(t *testing.T) {
	agent := agentWith(contracts.SurfaceWrite, contracts.TypeExecution, contracts.ClassifyRole("chief vibes officer"))
	require.Equal(t, contracts.FamilyGeneral, agent.RoleFamily)

	doActions := DeriveDoActions(agent, authAt(2))
	require.Len(t, doActions, 5)
	assert.Equal(t, "review_records", doActions[0].Spec.Name)
}

func TestClassifyRole_Families(t *testing.T) {
	cases := map[string]contracts.RoleFamily{
		"Senior Software Engineer": contracts.FamilyEngineering,
		"customer support agent":   contracts.FamilySupport,
		"Billing Specialist":       contracts.FamilyFinance,
		"infra technician":         contracts.FamilyOperations,
		"Data Analyst":             contracts.FamilyAnalytics,
		"gardener":                 contracts.FamilyGeneral,
	}
	for role, want := range cases {
		assert.Equal(t, want, contracts.ClassifyRole(role), "role %q", role)
	}
}
