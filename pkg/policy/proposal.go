// Package policy implements the learning half of the engine:
//
//   - deriving the policy change an approval implies
//   - the three validators every proposal must clear
//   - learned policies with a mandatory lifecycle
//   - non-mutating, time-bounded overrides
//
// Learning is monotonic. A proposal whose after-state reads as an
// expansion of authority is rejected by three independent validators,
// so approving one under-authority instance can never become a standing
// elevation.
package policy

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warden-systems/warden/pkg/contracts"
)

var (
	// ErrNotPolicyChange rejects proposal derivation for intents that only
	// approve a single instance.
	ErrNotPolicyChange = errors.New("intent scope is not POLICY_CHANGE")

	// ErrNotProposed rejects confirm/dismiss on a proposal outside PROPOSED.
	ErrNotProposed = errors.New("proposal is not in PROPOSED state")

	// ErrProposalNotFound reports an unknown proposal id.
	ErrProposalNotFound = errors.New("proposal not found")
)

// ProposalManager derives policy-change proposals from approvals and owns
// their PROPOSED to CONFIRMED or DISMISSED transition.
type ProposalManager struct {
	mu        sync.Mutex
	proposals map[string]*contracts.PolicyChangeProposal
	clock     func() time.Time
}

// NewProposalManager creates a proposal manager.
func NewProposalManager() *ProposalManager {
	return &ProposalManager{
		proposals: make(map[string]*contracts.PolicyChangeProposal),
		clock:     time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (m *ProposalManager) WithClock(clock func() time.Time) *ProposalManager {
	m.clock = clock
	return m
}

// Derive classifies the policy change a POLICY_CHANGE-scope intent implies
// and materializes a PROPOSED proposal with fixed before/after/reasoning
// text. Intents with any other scope are rejected. A fully-eligible staged
// action still yields a proposal, with change type NONE, so the caller can
// observe the classification.
func (m *ProposalManager) Derive(intent *contracts.ApprovalIntent, staged *contracts.StagedAction) (*contracts.PolicyChangeProposal, error) {
	if intent.Scope != contracts.ScopePolicyChange {
		return nil, fmt.Errorf("%w: %s", ErrNotPolicyChange, intent.Scope)
	}

	changeType := classify(staged)
	before, after, reasoning := proposalText(changeType, staged)

	proposal := &contracts.PolicyChangeProposal{
		ID:             uuid.New().String(),
		IntentID:       intent.ID,
		StagedActionID: staged.ID,
		ChangeType:     changeType,
		Before:         contracts.PolicyState{Description: before},
		After:          contracts.PolicyState{Description: after},
		Reasoning:      reasoning,
		Justification:  intent.Justification,
		Status:         contracts.ProposalProposed,
		CreatedAt:      m.clock(),
	}

	m.mu.Lock()
	m.proposals[proposal.ID] = proposal
	m.mu.Unlock()

	return proposal, nil
}

// Confirm transitions a PROPOSED proposal to CONFIRMED.
func (m *ProposalManager) Confirm(proposalID string) (*contracts.PolicyChangeProposal, error) {
	return m.resolve(proposalID, contracts.ProposalConfirmed)
}

// Dismiss transitions a PROPOSED proposal to DISMISSED.
func (m *ProposalManager) Dismiss(proposalID string) (*contracts.PolicyChangeProposal, error) {
	return m.resolve(proposalID, contracts.ProposalDismissed)
}

func (m *ProposalManager) resolve(proposalID string, target contracts.ProposalStatus) (*contracts.PolicyChangeProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	proposal, ok := m.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProposalNotFound, proposalID)
	}
	if proposal.Status != contracts.ProposalProposed {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotProposed, proposalID, proposal.Status)
	}

	proposal.Status = target
	return proposal, nil
}

// Get returns a proposal by id.
func (m *ProposalManager) Get(proposalID string) (*contracts.PolicyChangeProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	proposal, ok := m.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProposalNotFound, proposalID)
	}
	return proposal, nil
}

// classify maps the staged action's readiness and verdict confidence onto
// the implied change type.
func classify(staged *contracts.StagedAction) contracts.ChangeType {
	switch {
	case staged.Readiness.State == contracts.ReadinessNotEligible &&
		!staged.Readiness.Gates.AuthorityAlignment.Passed:
		return contracts.ChangeAuthorityAdjustment
	case staged.Readiness.State == contracts.ReadinessNotEligible &&
		!staged.Readiness.Gates.ActionSurfaceCompatibility.Passed:
		return contracts.ChangeActionPermission
	case staged.Readiness.State == contracts.ReadinessPendingApproval ||
		staged.Verdict.Decision.Confidence == contracts.ConfidenceMedium:
		return contracts.ChangeEscalationRule
	default:
		return contracts.ChangeNone
	}
}

// proposalText is the fixed before/after/reasoning lookup per change type.
// The after-state phrasing is load-bearing: the monotonicity classifier
// keys on these exact indicator phrases.
func proposalText(changeType contracts.ChangeType, staged *contracts.StagedAction) (before, after, reasoning string) {
	name := staged.Action.Spec.Name
	switch changeType {
	case contracts.ChangeAuthorityAdjustment:
		return fmt.Sprintf("the agent has no standing permission for actions requiring authority level %d",
				staged.Action.Spec.RequiredAuthority),
			fmt.Sprintf("the agent would have elevated authority to perform %q without per-instance approval", name),
			"the approved instance failed the authority alignment gate; a standing change would elevate authority"
	case contracts.ChangeActionPermission:
		return fmt.Sprintf("the action %q is blocked by an incompatible execution surface", name),
			fmt.Sprintf("the action %q remains subject to per-instance approval; no standing permission is granted", name),
			"the approved instance failed the action surface gate; only per-instance approval is recorded"
	case contracts.ChangeEscalationRule:
		return fmt.Sprintf("the action %q escalates on an ad-hoc basis with no standing rule", name),
			"escalation to a human operator is required for comparable actions",
			"the approved instance required escalation; a standing escalation rule captures the pattern"
	default:
		return "current policy is unchanged",
			"current policy is unchanged",
			"the approved instance was fully eligible; no policy change is implied"
	}
}
