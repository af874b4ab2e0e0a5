package contracts

// VerdictStatus is the decision of a runtime verdict.
type VerdictStatus string

const (
	VerdictAllowed            VerdictStatus = "ALLOWED"
	VerdictBlocked            VerdictStatus = "BLOCKED"
	VerdictEscalationRequired VerdictStatus = "ESCALATION_REQUIRED"
)

// Confidence expresses how firmly the verdict's decision holds.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
)

// ConstraintSource attributes a constraint to the level that imposed it.
// Constraints are always emitted in the canonical order ORGANIZATION,
// DOMAIN, AGENT, EAPP, RUNTIME; downstream explanation surfaces depend on
// positional stability, not just set membership.
type ConstraintSource string

const (
	SourceOrganization ConstraintSource = "ORGANIZATION"
	SourceDomain       ConstraintSource = "DOMAIN"
	SourceAgent        ConstraintSource = "AGENT"
	SourceEAPP         ConstraintSource = "EAPP"
	SourceRuntime      ConstraintSource = "RUNTIME"
)

// AttributedConstraint is one constraint with its attributed source.
type AttributedConstraint struct {
	Source      ConstraintSource `json:"source"`
	Description string           `json:"description"`
}

// VerdictSubject identifies whose conduct the verdict is about.
type VerdictSubject struct {
	OrganizationID string `json:"organization_id"`
	DomainID       string `json:"domain_id"`
	AgentID        string `json:"agent_id"`
}

// VerdictDecision pairs the status with the confidence it was derived at.
type VerdictDecision struct {
	Status     VerdictStatus `json:"status"`
	Confidence Confidence    `json:"confidence"`
}

// EscalationDescriptor describes the escalation a verdict requires.
// Present iff the decision status is ESCALATION_REQUIRED.
type EscalationDescriptor struct {
	Behavior     EscalationBehavior `json:"behavior"`
	ApproverRole string             `json:"approver_role"`
	Reason       string             `json:"reason"`
}

// ExecutionGuarantees asserts that deriving a verdict never executes
// anything. Attempted=true, Executed=false, ExecutionPath=nil is a
// load-bearing invariant of every verdict, not a default.
type ExecutionGuarantees struct {
	Attempted     bool    `json:"attempted"`
	Executed      bool    `json:"executed"`
	ExecutionPath *string `json:"execution_path"`
}

// RuntimeVerdict is a fully-reasoned, immutable snapshot of whether one
// agent may perform one candidate action. It explains; it never executes.
type RuntimeVerdict struct {
	// VerdictID is derived deterministically from the verdict's content
	// hash, so identical inputs always produce the identical ID.
	VerdictID string `json:"verdict_id"`

	Subject  VerdictSubject  `json:"subject"`
	Action   ActionSpec      `json:"action"`
	Decision VerdictDecision `json:"decision"`

	// AppliedConstraints is ordered canonically: ORGANIZATION, DOMAIN,
	// AGENT, EAPP, RUNTIME. The final RUNTIME constraint is always present.
	AppliedConstraints []AttributedConstraint `json:"applied_constraints"`

	Escalation *EscalationDescriptor `json:"escalation,omitempty"`
	Execution  ExecutionGuarantees   `json:"execution"`

	// ContentHash is the sha256 of the canonical (JCS) encoding of the
	// verdict body, computed before the ID is assigned.
	ContentHash string `json:"content_hash"`
}

// ReadinessState is the folded eligibility of the four readiness gates.
type ReadinessState string

const (
	ReadinessNotEligible     ReadinessState = "NOT_ELIGIBLE"
	ReadinessPendingApproval ReadinessState = "ELIGIBLE_PENDING_APPROVAL"
	ReadinessAutomatic       ReadinessState = "ELIGIBLE_AUTOMATIC"
	ReadinessBlockedHard     ReadinessState = "BLOCKED_HARD"
)

// GateResult is one independent readiness precondition's outcome.
type GateResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// ReadinessGates holds the four named gates in their fixed order.
type ReadinessGates struct {
	AuthorityAlignment         GateResult `json:"authority_alignment"`
	ActionSurfaceCompatibility GateResult `json:"action_surface_compatibility"`
	EscalationResolution       GateResult `json:"escalation_resolution"`
	PersonaAlignment           GateResult `json:"persona_alignment"`
}

// ExecutionReadiness folds the four gates into one eligibility state with
// a canonical summary sentence.
type ExecutionReadiness struct {
	State   ReadinessState `json:"state"`
	Gates   ReadinessGates `json:"gates"`
	Summary string         `json:"summary"`
}
