package contracts

import "time"

// StagedState is the state of a staged action. STAGED is the only state
// from which APPROVED or REJECTED are reachable; both are terminal.
type StagedState string

const (
	StagedStateStaged   StagedState = "STAGED"
	StagedStateApproved StagedState = "APPROVED"
	StagedStateRejected StagedState = "REJECTED"
)

// IntentScope declares how far an approval reaches.
type IntentScope string

const (
	// ScopeInstanceOnly approves this one staged instance and nothing else.
	ScopeInstanceOnly IntentScope = "INSTANCE_ONLY"

	// ScopePolicyChange additionally proposes a standing policy change,
	// subject to the full validation pipeline.
	ScopePolicyChange IntentScope = "POLICY_CHANGE"
)

// StagedAction is an immutable snapshot of a candidate action awaiting a
// human decision. It owns frozen deep copies of all four derivation inputs;
// only its State field ever changes, and only through the staging manager.
type StagedAction struct {
	ID    string      `json:"id"`
	State StagedState `json:"state"`

	Agent     Agent              `json:"agent"`
	Action    DoAction           `json:"action"`
	Verdict   RuntimeVerdict     `json:"verdict"`
	Readiness ExecutionReadiness `json:"readiness"`
	Authority AuthorityResult    `json:"authority"`

	// SnapshotHash is the sha256 of the canonical encoding of the frozen
	// inputs, fixed at staging time.
	SnapshotHash string `json:"snapshot_hash"`

	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
}

// ApprovalIntent is a human's recorded intent about a STAGED action. It is
// a record of judgment, never a trigger of execution, and creating one does
// not itself transition the staged action.
type ApprovalIntent struct {
	ID             string      `json:"id"`
	StagedActionID string      `json:"staged_action_id"`
	Scope          IntentScope `json:"scope"`
	Justification  string      `json:"justification"`

	// Conditions are optional CEL expressions an approver attaches. Each
	// must compile to a boolean over the approval activation context; they
	// are validated when the intent is created.
	Conditions []string `json:"conditions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
