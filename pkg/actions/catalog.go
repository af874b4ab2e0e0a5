// Package actions maps an agent's configuration and derived authority onto
// per-action availability: the five coarse action categories of the action
// surface, and the named candidate actions of the agent's role catalogue.
package actions

import "github.com/warden-systems/warden/pkg/contracts"

// surfaceSpecs are the five coarse categories of the action surface, in
// their fixed derivation order. Each is evaluated through the same rule
// chain as a catalogue action.
var surfaceSpecs = []struct {
	category contracts.SurfaceCategory
	spec     contracts.ActionSpec
}{
	{contracts.SurfaceCategoryRead, contracts.ActionSpec{
		Name: "read", Category: contracts.CategoryDataAccess,
		RequiredAuthority: 0, RequiredSurface: contracts.SurfaceRead,
	}},
	{contracts.SurfaceCategoryWrite, contracts.ActionSpec{
		Name: "write", Category: contracts.CategoryOperations,
		RequiredAuthority: 2, RequiredSurface: contracts.SurfaceWrite,
	}},
	{contracts.SurfaceCategoryDecide, contracts.ActionSpec{
		Name: "decide", Category: contracts.CategoryDecisionSupport,
		RequiredAuthority: 2, RequiredSurface: contracts.SurfaceRead,
	}},
	{contracts.SurfaceCategoryExecute, contracts.ActionSpec{
		Name: "execute", Category: contracts.CategoryExecution,
		RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute,
	}},
	{contracts.SurfaceCategoryEscalate, contracts.ActionSpec{
		Name: "escalate", Category: contracts.CategoryEscalation,
		RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead,
	}},
}

// genericCatalog is the declared fallback for agents whose role matched no
// family.
var genericCatalog = []contracts.ActionSpec{
	{Name: "review_records", Category: contracts.CategoryDataAccess, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
	{Name: "compile_report", Category: contracts.CategoryReporting, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
	{Name: "update_records", Category: contracts.CategoryOperations, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceWrite},
	{Name: "approve_request", Category: contracts.CategoryDecisionSupport, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceRead},
	{Name: "run_task", Category: contracts.CategoryExecution, RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute},
}

// roleCatalogs keys each role family to its candidate-action catalogue.
// The catalogue is resolved from the agent's pre-classified RoleFamily,
// never by re-matching the free-text role.
var roleCatalogs = map[contracts.RoleFamily][]contracts.ActionSpec{
	contracts.FamilyEngineering: {
		{Name: "read_source", Category: contracts.CategoryDataAccess, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
		{Name: "review_change", Category: contracts.CategoryAnalysis, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
		{Name: "merge_change", Category: contracts.CategoryOperations, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceWrite},
		{Name: "run_pipeline", Category: contracts.CategoryExecution, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceExecute},
		{Name: "deploy_service", Category: contracts.CategoryExecution, RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute},
		{Name: "rollback_deployment", Category: contracts.CategoryOperations, RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute},
	},
	contracts.FamilySupport: {
		{Name: "read_ticket", Category: contracts.CategoryDataAccess, RequiredAuthority: 0, RequiredSurface: contracts.SurfaceRead},
		{Name: "respond_to_customer", Category: contracts.CategoryCommunication, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceWrite},
		{Name: "update_ticket", Category: contracts.CategoryOperations, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceWrite},
		{Name: "issue_refund", Category: contracts.CategoryOperations, RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute},
		{Name: "escalate_ticket", Category: contracts.CategoryEscalation, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
	},
	contracts.FamilyFinance: {
		{Name: "read_ledger", Category: contracts.CategoryDataAccess, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
		{Name: "prepare_statement", Category: contracts.CategoryReporting, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
		{Name: "reconcile_accounts", Category: contracts.CategoryAnalysis, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceWrite},
		{Name: "approve_invoice", Category: contracts.CategoryDecisionSupport, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceRead},
		{Name: "transfer_funds", Category: contracts.CategoryExecution, RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute},
	},
	contracts.FamilyOperations: {
		{Name: "read_runbook", Category: contracts.CategoryDataAccess, RequiredAuthority: 0, RequiredSurface: contracts.SurfaceRead},
		{Name: "monitor_systems", Category: contracts.CategoryAnalysis, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
		{Name: "update_configuration", Category: contracts.CategoryOperations, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceWrite},
		{Name: "restart_service", Category: contracts.CategoryExecution, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceExecute},
		{Name: "provision_infrastructure", Category: contracts.CategoryExecution, RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute},
	},
	contracts.FamilyAnalytics: {
		{Name: "query_dataset", Category: contracts.CategoryDataAccess, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceRead},
		{Name: "build_dashboard", Category: contracts.CategoryReporting, RequiredAuthority: 1, RequiredSurface: contracts.SurfaceWrite},
		{Name: "run_analysis", Category: contracts.CategoryAnalysis, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceRead},
		{Name: "publish_findings", Category: contracts.CategoryCommunication, RequiredAuthority: 2, RequiredSurface: contracts.SurfaceWrite},
		{Name: "schedule_model_run", Category: contracts.CategoryExecution, RequiredAuthority: 3, RequiredSurface: contracts.SurfaceExecute},
	},
}

// CatalogFor returns the candidate-action catalogue for a role family.
// Unknown families fall back to the generic catalogue.
func CatalogFor(family contracts.RoleFamily) []contracts.ActionSpec {
	if specs, ok := roleCatalogs[family]; ok {
		return specs
	}
	return genericCatalog
}

// FindSpec looks up a named action in the agent's catalogue.
func FindSpec(family contracts.RoleFamily, name string) (contracts.ActionSpec, bool) {
	for _, spec := range CatalogFor(family) {
		if spec.Name == name {
			return spec, true
		}
	}
	return contracts.ActionSpec{}, false
}
