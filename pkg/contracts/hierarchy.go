// Package contracts defines the value types shared across the Warden
// governance engine: the organizational hierarchy, derived authority,
// action catalogues, runtime verdicts, execution readiness, staging
// records, and learned policy.
//
// Every derived type in this package is a value object owned by the caller
// of the derivation that produced it. Derivations never mutate their inputs
// and never share state through these types.
package contracts

import "strings"

// OrgStatus is the editing status of an Organization.
type OrgStatus string

const (
	OrgStatusDraft  OrgStatus = "DRAFT"
	OrgStatusLocked OrgStatus = "LOCKED"
)

// ExecutionSurface is the widest I/O surface an agent may touch.
// Surfaces are ordered: READ < WRITE < EXECUTE.
type ExecutionSurface string

const (
	SurfaceRead    ExecutionSurface = "READ"
	SurfaceWrite   ExecutionSurface = "WRITE"
	SurfaceExecute ExecutionSurface = "EXECUTE"
)

// Rank returns the ordinal position of the surface (READ=1 .. EXECUTE=3).
// Unknown surfaces rank 0 and therefore fail every surface check.
func (s ExecutionSurface) Rank() int {
	switch s {
	case SurfaceRead:
		return 1
	case SurfaceWrite:
		return 2
	case SurfaceExecute:
		return 3
	default:
		return 0
	}
}

// ExecutionType classifies what kind of acting an agent does.
type ExecutionType string

const (
	TypeAdvisory  ExecutionType = "ADVISORY"
	TypeDecision  ExecutionType = "DECISION"
	TypeExecution ExecutionType = "EXECUTION"
)

// EscalationBehavior controls how an agent's escalations are resolved.
type EscalationBehavior string

const (
	EscalationAuto          EscalationBehavior = "AUTO"
	EscalationHumanRequired EscalationBehavior = "HUMAN_REQUIRED"
)

// ActionCategory classifies what aspect of work an action touches.
type ActionCategory string

const (
	CategoryDataAccess      ActionCategory = "DATA_ACCESS"
	CategoryReporting       ActionCategory = "REPORTING"
	CategoryAnalysis        ActionCategory = "ANALYSIS"
	CategoryCommunication   ActionCategory = "COMMUNICATION"
	CategoryDecisionSupport ActionCategory = "DECISION_SUPPORT"
	CategoryOperations      ActionCategory = "OPERATIONS"
	CategoryExecution       ActionCategory = "EXECUTION"
	CategoryEscalation      ActionCategory = "ESCALATION"
)

// RoleFamily is the classified family of an agent's free-text role.
// Classification happens once, when the agent is constructed or loaded,
// not per derivation call.
type RoleFamily string

const (
	FamilyEngineering RoleFamily = "ENGINEERING"
	FamilySupport     RoleFamily = "SUPPORT"
	FamilyFinance     RoleFamily = "FINANCE"
	FamilyOperations  RoleFamily = "OPERATIONS"
	FamilyAnalytics   RoleFamily = "ANALYTICS"

	// FamilyGeneral is the declared fallback for roles that match no family.
	FamilyGeneral RoleFamily = "GENERAL"
)

// roleMatchers maps substring markers to role families. Order matters:
// the first marker contained in the lowercased role wins.
var roleMatchers = []struct {
	marker string
	family RoleFamily
}{
	{"engineer", FamilyEngineering},
	{"developer", FamilyEngineering},
	{"support", FamilySupport},
	{"helpdesk", FamilySupport},
	{"finance", FamilyFinance},
	{"account", FamilyFinance},
	{"billing", FamilyFinance},
	{"operations", FamilyOperations},
	{"infra", FamilyOperations},
	{"ops", FamilyOperations},
	{"analyst", FamilyAnalytics},
	{"research", FamilyAnalytics},
	{"data", FamilyAnalytics},
}

// ClassifyRole resolves a free-text role into a RoleFamily.
func ClassifyRole(role string) RoleFamily {
	lowered := strings.ToLower(role)
	for _, m := range roleMatchers {
		if strings.Contains(lowered, m.marker) {
			return m.family
		}
	}
	return FamilyGeneral
}

// Organization is the root of the hierarchy. Its authority ceiling is the
// absolute ceiling for the whole tree: nothing below can exceed it.
type Organization struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	AuthorityCeiling   int                `json:"authority_ceiling"`
	Status             OrgStatus          `json:"status"`
	GlobalActions      []string           `json:"global_actions,omitempty"`
	EscalationBaseline EscalationBehavior `json:"escalation_baseline,omitempty"`
}

// Domain belongs to exactly one Organization. Its effective ceiling is
// min(domain ceiling, organization ceiling): a domain can only narrow the
// authority it inherits, never widen it.
type Domain struct {
	ID                string             `json:"id"`
	OrganizationID    string             `json:"organization_id"`
	Name              string             `json:"name"`
	AuthorityCeiling  int                `json:"authority_ceiling"`
	AllowedCategories []ActionCategory   `json:"allowed_categories,omitempty"`
	EscalationPosture EscalationBehavior `json:"escalation_posture,omitempty"`
	Constraints       []string           `json:"constraints,omitempty"`
}

// AllowsCategory reports whether the domain's allowed-category set includes
// the given category. An empty set allows nothing.
func (d *Domain) AllowsCategory(cat ActionCategory) bool {
	for _, c := range d.AllowedCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// Agent belongs to exactly one Domain.
type Agent struct {
	ID                 string             `json:"id"`
	DomainID           string             `json:"domain_id"`
	Name               string             `json:"name"`
	Role               string             `json:"role"`
	RoleFamily         RoleFamily         `json:"role_family"`
	AutonomyLevel      int                `json:"autonomy_level"`
	ExecutionSurface   ExecutionSurface   `json:"execution_surface"`
	ExecutionType      ExecutionType      `json:"execution_type"`
	EscalationBehavior EscalationBehavior `json:"escalation_behavior"`

	// Commitments are the agent's immutable ethical commitments. A veto
	// raised from a commitment is final and cannot be approved away.
	Commitments []string `json:"commitments,omitempty"`

	// OperationalConstraints are scanned by the ethical veto alongside
	// the commitments.
	OperationalConstraints []string `json:"operational_constraints,omitempty"`
}
