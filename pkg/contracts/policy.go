package contracts

import "time"

// ProposalStatus is the state of a policy-change proposal. PROPOSED is the
// only state from which CONFIRMED or DISMISSED are reachable; both are
// terminal.
type ProposalStatus string

const (
	ProposalProposed  ProposalStatus = "PROPOSED"
	ProposalConfirmed ProposalStatus = "CONFIRMED"
	ProposalDismissed ProposalStatus = "DISMISSED"
)

// ChangeType classifies what kind of policy change an approval implies.
type ChangeType string

const (
	ChangeAuthorityAdjustment ChangeType = "AUTHORITY_ADJUSTMENT"
	ChangeActionPermission    ChangeType = "ACTION_PERMISSION"
	ChangeEscalationRule      ChangeType = "ESCALATION_RULE"
	ChangeNone                ChangeType = "NONE"
)

// PolicyState is a free-text description of policy as it stands before or
// after a proposed change. The learning validators classify these texts
// against fixed indicator phrase lists.
type PolicyState struct {
	Description string `json:"description"`
}

// PolicyChangeProposal is derived from a POLICY_CHANGE-scope approval
// intent. It pairs a before/after policy state with the classified change
// type and the system's reasoning.
type PolicyChangeProposal struct {
	ID             string         `json:"id"`
	IntentID       string         `json:"intent_id"`
	StagedActionID string         `json:"staged_action_id"`
	ChangeType     ChangeType     `json:"change_type"`
	Before         PolicyState    `json:"before"`
	After          PolicyState    `json:"after"`
	Reasoning      string         `json:"reasoning"`
	Justification  string         `json:"justification"`
	Status         ProposalStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// LPSLayer classifies which aspect of an agent a change affects. Only the
// POLICY layer is freely writable by learning; IDENTITY, MANDATE, and
// EXECUTION are categorically off-limits.
type LPSLayer string

const (
	LayerIdentity   LPSLayer = "IDENTITY"
	LayerMandate    LPSLayer = "MANDATE"
	LayerAuthority  LPSLayer = "AUTHORITY"
	LayerCapability LPSLayer = "CAPABILITY"
	LayerPolicy     LPSLayer = "POLICY"
	LayerExecution  LPSLayer = "EXECUTION"
)

// ChangeDirection is the classified direction of a proposed change.
type ChangeDirection string

const (
	DirectionExpand   ChangeDirection = "EXPAND"
	DirectionRestrict ChangeDirection = "RESTRICT"
	DirectionMaintain ChangeDirection = "MAINTAIN"
)

// CheckResult is one named validation check with its outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// ComplianceResult is the outcome of the four-check compliance validator:
// declared intent, bounded authority, explainability, drift prevention.
type ComplianceResult struct {
	Checks []CheckResult `json:"checks"`
}

// Passed reports whether every compliance check passed.
func (r ComplianceResult) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return len(r.Checks) > 0
}

// LayerBoundaryResult is the outcome of the layer-boundary validator.
type LayerBoundaryResult struct {
	AffectedLayers []LPSLayer `json:"affected_layers"`
	Valid          bool       `json:"valid"`
	Reason         string     `json:"reason"`
}

// MonotonicityResult is the outcome of the monotonicity validator.
// EXPAND is always invalid: learned policy may only maintain or restrict.
type MonotonicityResult struct {
	Direction ChangeDirection `json:"direction"`
	Valid     bool            `json:"valid"`
	Reason    string          `json:"reason"`
}

// ValidationReport bundles the three independent validator outcomes a
// proposal must pass before a policy is learned.
type ValidationReport struct {
	Compliance    ComplianceResult    `json:"compliance"`
	LayerBoundary LayerBoundaryResult `json:"layer_boundary"`
	Monotonicity  MonotonicityResult  `json:"monotonicity"`
}

// AllPassed reports whether every validator accepted the proposal.
func (r ValidationReport) AllPassed() bool {
	return r.Compliance.Passed() && r.LayerBoundary.Valid && r.Monotonicity.Valid
}

// LifecycleStatus is the stored lifecycle state of a learned policy.
// OVERRIDDEN is only ever an *effective* status computed from overrides;
// it is listed here because effective-status queries return this type.
type LifecycleStatus string

const (
	LifecycleActive      LifecycleStatus = "ACTIVE"
	LifecycleUnderReview LifecycleStatus = "UNDER_REVIEW"
	LifecycleExpired     LifecycleStatus = "EXPIRED"
	LifecycleOverridden  LifecycleStatus = "OVERRIDDEN"
)

// PolicyLifecycle is the mandatory lifecycle attached to every learned
// policy. A policy can never exist without an expiry.
type PolicyLifecycle struct {
	CreatedAt          time.Time       `json:"created_at"`
	ReviewIntervalDays int             `json:"review_interval_days"`
	NextReviewDate     time.Time       `json:"next_review_date"`
	ExpiresAt          time.Time       `json:"expires_at"`
	LastReviewedAt     *time.Time      `json:"last_reviewed_at"`
	Status             LifecycleStatus `json:"status"`
}

// LearnedPolicy is the immutable outcome of a confirmed, fully-validated
// policy-change proposal. Only the lifecycle block changes after creation,
// and only through the lifecycle manager.
type LearnedPolicy struct {
	ID             string           `json:"id"`
	SourceProposal string           `json:"source_proposal"`
	ChangeType     ChangeType       `json:"change_type"`
	Constraint     string           `json:"constraint"`
	AffectedLayers []LPSLayer       `json:"affected_layers"`
	Validation     ValidationReport `json:"validation"`
	Lifecycle      PolicyLifecycle  `json:"lifecycle"`
}

// OverrideScope declares what an override suspends.
type OverrideScope string

const (
	OverrideScopeSuspend OverrideScope = "SUSPEND"
	OverrideScopeSoften  OverrideScope = "SOFTEN"
)

// PolicyOverride is a non-mutating, time-bounded shadow over a learned
// policy. It references the target policy by id only, never by pointer,
// and its activity is always recomputed from wall-clock time; the record
// stores no ground-truth active flag.
type PolicyOverride struct {
	ID             string        `json:"id"`
	TargetPolicyID string        `json:"target_policy_id"`
	Scope          OverrideScope `json:"scope"`
	Reason         string        `json:"reason"`
	CreatedBy      string        `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	ExpiresAt      time.Time     `json:"expires_at"`
}
