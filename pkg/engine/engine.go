// Package engine is the facade over the governance pipeline. It wires the
// pure derivations (authority, actions, verdicts, readiness), the ethical
// veto, the staging and policy state machines, the learned-policy store,
// the audit ledger, and telemetry into one injectable object.
//
// The read path is pure and side-effect free apart from counters. The
// write path is the only place state changes, and every transition is
// receipted in the audit ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/warden-systems/warden/pkg/actions"
	"github.com/warden-systems/warden/pkg/audit"
	"github.com/warden-systems/warden/pkg/authority"
	"github.com/warden-systems/warden/pkg/contracts"
	"github.com/warden-systems/warden/pkg/ethics"
	"github.com/warden-systems/warden/pkg/observability"
	"github.com/warden-systems/warden/pkg/policy"
	"github.com/warden-systems/warden/pkg/runtime"
	"github.com/warden-systems/warden/pkg/staging"
)

// ErrEthicsBlocked rejects any attempt to stage an action the ethical
// veto blocks. There is no API that accepts an ethics-blocked action.
var ErrEthicsBlocked = errors.New("action is blocked by an ethical commitment")

// Options configures an Engine. Zero values get working defaults: an
// in-memory policy store, disabled telemetry, and the wall clock.
type Options struct {
	Store         policy.Store
	Observability *observability.Provider
	Logger        *slog.Logger
	Clock         func() time.Time
}

// Engine exposes the full query and command surface of the governance
// pipeline.
type Engine struct {
	logger *slog.Logger
	obs    *observability.Provider

	staging   *staging.Manager
	proposals *policy.ProposalManager
	learner   *policy.Learner
	lifecycle *policy.LifecycleManager
	overrides *policy.OverrideManager
	store     policy.Store
	ledger    *audit.Ledger
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		opts.Store = policy.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Observability == nil {
		provider, err := observability.New(context.Background(), observability.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("init observability: %w", err)
		}
		opts.Observability = provider
	}

	stagingManager, err := staging.NewManager()
	if err != nil {
		return nil, fmt.Errorf("init staging: %w", err)
	}

	e := &Engine{
		logger:    opts.Logger.With("component", "engine"),
		obs:       opts.Observability,
		staging:   stagingManager,
		proposals: policy.NewProposalManager(),
		learner:   policy.NewLearner(),
		lifecycle: policy.NewLifecycleManager(),
		overrides: policy.NewOverrideManager(),
		store:     opts.Store,
		ledger:    audit.NewLedger(),
	}

	if opts.Clock != nil {
		e.staging.WithClock(opts.Clock)
		e.proposals.WithClock(opts.Clock)
		e.learner.WithClock(opts.Clock)
		e.lifecycle.WithClock(opts.Clock)
		e.overrides.WithClock(opts.Clock)
		e.ledger.WithClock(opts.Clock)
	}

	return e, nil
}

// Ledger exposes the audit ledger for read-only inspection.
func (e *Engine) Ledger() *audit.Ledger { return e.ledger }

// OrganizationAuthority derives the organization-level authority result.
func (e *Engine) OrganizationAuthority(ctx context.Context, org *contracts.Organization) *contracts.AuthorityResult {
	e.obs.RecordDerivation(ctx, "authority_organization")
	return authority.DeriveOrganization(org)
}

// DomainAuthority derives the domain-level authority result.
func (e *Engine) DomainAuthority(ctx context.Context, org *contracts.Organization, dom *contracts.Domain) *contracts.AuthorityResult {
	e.obs.RecordDerivation(ctx, "authority_domain")
	return authority.DeriveDomain(org, dom)
}

// AgentAuthority derives the full-chain authority result for an agent.
func (e *Engine) AgentAuthority(ctx context.Context, org *contracts.Organization, dom *contracts.Domain, agt *contracts.Agent) *contracts.AuthorityResult {
	e.obs.RecordDerivation(ctx, "authority_agent")
	return authority.DeriveAgent(org, dom, agt)
}

// ActionSurface derives the agent's five-category action surface.
func (e *Engine) ActionSurface(ctx context.Context, agt *contracts.Agent, auth *contracts.AuthorityResult) *contracts.ActionSurface {
	e.obs.RecordDerivation(ctx, "action_surface")
	return actions.DeriveSurface(agt, auth)
}

// DoActions derives the agent's concrete candidate-action catalogue.
func (e *Engine) DoActions(ctx context.Context, agt *contracts.Agent, auth *contracts.AuthorityResult) []contracts.DoAction {
	e.obs.RecordDerivation(ctx, "do_actions")
	return actions.DeriveDoActions(agt, auth)
}

// Verdict derives the runtime verdict for one agent and one candidate
// action.
func (e *Engine) Verdict(ctx context.Context, org *contracts.Organization, dom *contracts.Domain, agt *contracts.Agent, action contracts.DoAction, auth *contracts.AuthorityResult) *contracts.RuntimeVerdict {
	verdict := runtime.DeriveVerdict(org, dom, agt, action, auth)
	e.obs.RecordVerdict(ctx, string(verdict.Decision.Status))
	if verdict.Decision.Status != contracts.VerdictAllowed {
		e.ledger.Record(audit.EventVerdictDerived, agt.ID, action.Spec.Name,
			string(verdict.Decision.Status))
	}
	return verdict
}

// Readiness derives execution readiness, with the ethical veto wired into
// the persona-alignment gate.
func (e *Engine) Readiness(ctx context.Context, agt *contracts.Agent, dom *contracts.Domain, action contracts.DoAction, auth *contracts.AuthorityResult, verdict *contracts.RuntimeVerdict) *contracts.ExecutionReadiness {
	e.obs.RecordDerivation(ctx, "readiness")
	return runtime.DeriveReadiness(agt, dom, action, auth, verdict, ethics.Veto{})
}

// EvaluateEthics runs the ethical veto over a simplified action
// descriptor.
func (e *Engine) EvaluateEthics(agt *contracts.Agent, action ethics.ActionDescriptor) ethics.Verdict {
	return ethics.Evaluate(agt, action)
}

// StageAction runs the full pipeline for one named catalogue action and
// stages the result for human review. The ethical veto runs first; a
// blocked action never reaches staging.
func (e *Engine) StageAction(ctx context.Context, org *contracts.Organization, dom *contracts.Domain, agt *contracts.Agent, actionName string) (*contracts.StagedAction, error) {
	ctx, span := e.obs.StartSpan(ctx, "engine.StageAction")
	defer span.End()

	auth := e.AgentAuthority(ctx, org, dom, agt)

	var action *contracts.DoAction
	for _, da := range e.DoActions(ctx, agt, auth) {
		if da.Spec.Name == actionName {
			found := da
			action = &found
			break
		}
	}
	if action == nil {
		return nil, fmt.Errorf("action %q is not in the agent's catalogue", actionName)
	}

	ethicsVerdict := e.EvaluateEthics(agt, ethics.ActionDescriptor{
		Type:        string(action.Spec.Category),
		Description: strings.ReplaceAll(action.Spec.Name, "_", " "),
	})
	if ethicsVerdict.Blocked() {
		e.ledger.Record(audit.EventEthicsBlocked, agt.ID, action.Spec.Name, ethicsVerdict.Explanation)
		e.logger.WarnContext(ctx, "ethical veto blocked staging",
			"agent", agt.ID, "action", action.Spec.Name,
			"commitment", ethicsVerdict.ViolatedCommitment)
		return nil, fmt.Errorf("%w: %s", ErrEthicsBlocked, ethicsVerdict.Explanation)
	}

	verdict := e.Verdict(ctx, org, dom, agt, *action, auth)
	readiness := e.Readiness(ctx, agt, dom, *action, auth, verdict)

	staged, err := e.staging.Stage(agt, *action, verdict, readiness, auth)
	if err != nil {
		e.ledger.Record(audit.EventStagingRefused, agt.ID, action.Spec.Name, err.Error())
		return nil, err
	}

	e.obs.RecordStagedAction(ctx)
	e.ledger.Record(audit.EventActionStaged, agt.ID, staged.ID,
		fmt.Sprintf("staged %q with readiness %s", action.Spec.Name, readiness.State))
	return staged, nil
}

// StagedAction returns a staged action by id.
func (e *Engine) StagedAction(id string) (*contracts.StagedAction, error) {
	return e.staging.Get(id)
}

// ApproveStagedAction transitions a STAGED action to APPROVED.
func (e *Engine) ApproveStagedAction(ctx context.Context, stagedID string) (*contracts.StagedAction, error) {
	staged, err := e.staging.Approve(stagedID)
	if err != nil {
		return nil, err
	}
	e.ledger.Record(audit.EventActionApproved, staged.Agent.ID, staged.ID, "")
	e.logger.InfoContext(ctx, "staged action approved", "staged", staged.ID)
	return staged, nil
}

// RejectStagedAction transitions a STAGED action to REJECTED.
func (e *Engine) RejectStagedAction(ctx context.Context, stagedID, reason string) (*contracts.StagedAction, error) {
	staged, err := e.staging.Reject(stagedID, reason)
	if err != nil {
		return nil, err
	}
	e.ledger.Record(audit.EventActionRejected, staged.Agent.ID, staged.ID, reason)
	e.logger.InfoContext(ctx, "staged action rejected", "staged", staged.ID, "reason", reason)
	return staged, nil
}

// CreateApprovalIntent records a human's approval intent over a STAGED
// action.
func (e *Engine) CreateApprovalIntent(ctx context.Context, stagedID string, scope contracts.IntentScope, justification string, conditions []string) (*contracts.ApprovalIntent, error) {
	intent, err := e.staging.CreateIntent(stagedID, scope, justification, conditions)
	if err != nil {
		return nil, err
	}
	e.ledger.Record(audit.EventIntentCreated, "", stagedID, string(scope))
	e.logger.InfoContext(ctx, "approval intent created", "staged", stagedID, "scope", scope)
	return intent, nil
}

// EvaluateIntentConditions evaluates an intent's approval conditions
// against the given activation context. All conditions must hold.
func (e *Engine) EvaluateIntentConditions(intent *contracts.ApprovalIntent, activation map[string]any) (bool, error) {
	return e.staging.EvaluateConditions(intent, activation)
}

// DeriveChangeProposal derives the policy change a POLICY_CHANGE-scope
// intent implies.
func (e *Engine) DeriveChangeProposal(ctx context.Context, intent *contracts.ApprovalIntent) (*contracts.PolicyChangeProposal, error) {
	staged, err := e.staging.Get(intent.StagedActionID)
	if err != nil {
		return nil, err
	}
	proposal, err := e.proposals.Derive(intent, staged)
	if err != nil {
		return nil, err
	}
	e.ledger.Record(audit.EventProposalDerived, staged.Agent.ID, proposal.ID, string(proposal.ChangeType))
	e.logger.InfoContext(ctx, "policy change proposal derived",
		"proposal", proposal.ID, "change_type", proposal.ChangeType)
	return proposal, nil
}

// ConfirmProposal confirms a PROPOSED proposal and attempts to learn a
// policy from it. A validator rejection is an expected non-result: the
// proposal stays CONFIRMED, no policy is stored, and the report says why.
func (e *Engine) ConfirmProposal(ctx context.Context, proposalID string) (*contracts.LearnedPolicy, contracts.ValidationReport, error) {
	proposal, err := e.proposals.Confirm(proposalID)
	if err != nil {
		return nil, contracts.ValidationReport{}, err
	}
	e.ledger.Record(audit.EventProposalResolved, "", proposal.ID, string(contracts.ProposalConfirmed))

	learned, report := e.learner.Learn(proposal)
	if learned == nil {
		e.obs.RecordLearningSkipped(ctx)
		e.ledger.Record(audit.EventLearningSkipped, "", proposal.ID, skipReason(report, proposal))
		e.logger.InfoContext(ctx, "policy learning skipped", "proposal", proposal.ID)
		return nil, report, nil
	}

	if err := e.store.Append(learned); err != nil {
		return nil, report, fmt.Errorf("store learned policy: %w", err)
	}
	e.obs.RecordPolicyLearned(ctx, string(learned.ChangeType))
	e.ledger.Record(audit.EventPolicyLearned, "", learned.ID, learned.Constraint)
	e.logger.InfoContext(ctx, "policy learned",
		"policy", learned.ID, "change_type", learned.ChangeType)
	return learned, report, nil
}

// DismissProposal dismisses a PROPOSED proposal.
func (e *Engine) DismissProposal(ctx context.Context, proposalID string) (*contracts.PolicyChangeProposal, error) {
	proposal, err := e.proposals.Dismiss(proposalID)
	if err != nil {
		return nil, err
	}
	e.ledger.Record(audit.EventProposalResolved, "", proposal.ID, string(contracts.ProposalDismissed))
	e.logger.InfoContext(ctx, "proposal dismissed", "proposal", proposal.ID)
	return proposal, nil
}

// Policies returns every learned policy in append order.
func (e *Engine) Policies() ([]*contracts.LearnedPolicy, error) {
	return e.store.List()
}

// Policy returns a learned policy by id.
func (e *Engine) Policy(id string) (*contracts.LearnedPolicy, error) {
	return e.store.Get(id)
}

// RenewPolicy records a human review of a learned policy.
func (e *Engine) RenewPolicy(ctx context.Context, policyID string) error {
	p, err := e.store.Get(policyID)
	if err != nil {
		return err
	}
	if err := e.lifecycle.Renew(p); err != nil {
		return err
	}
	e.ledger.Record(audit.EventPolicyRenewed, "", p.ID, "")
	e.logger.InfoContext(ctx, "policy renewed", "policy", p.ID)
	return nil
}

// LetPolicyExpire forces a learned policy into EXPIRED status.
func (e *Engine) LetPolicyExpire(ctx context.Context, policyID string) error {
	p, err := e.store.Get(policyID)
	if err != nil {
		return err
	}
	e.lifecycle.LetExpire(p)
	e.ledger.Record(audit.EventPolicyExpired, "", p.ID, "")
	e.logger.InfoContext(ctx, "policy expired by operator", "policy", p.ID)
	return nil
}

// CreatePolicyOverride records a time-bounded override against a learned
// policy.
func (e *Engine) CreatePolicyOverride(ctx context.Context, policyID string, scope contracts.OverrideScope, reason, createdBy string, expiryDays int) (*contracts.PolicyOverride, error) {
	if _, err := e.store.Get(policyID); err != nil {
		return nil, err
	}
	override, err := e.overrides.Create(policyID, scope, reason, createdBy, expiryDays)
	if err != nil {
		return nil, err
	}
	e.ledger.Record(audit.EventOverrideCreated, "", policyID, reason)
	e.logger.InfoContext(ctx, "policy override created",
		"policy", policyID, "scope", scope, "expires", override.ExpiresAt)
	return override, nil
}

// ActivePolicyStatus returns the policy's effective lifecycle status,
// OVERRIDDEN while any override is active.
func (e *Engine) ActivePolicyStatus(policyID string) (contracts.LifecycleStatus, error) {
	p, err := e.store.Get(policyID)
	if err != nil {
		return "", err
	}
	return e.overrides.ActiveStatus(p), nil
}

func skipReason(report contracts.ValidationReport, proposal *contracts.PolicyChangeProposal) string {
	switch {
	case !report.Compliance.Passed():
		return "compliance validation failed"
	case !report.LayerBoundary.Valid:
		return report.LayerBoundary.Reason
	case !report.Monotonicity.Valid:
		return report.Monotonicity.Reason
	case proposal.ChangeType == contracts.ChangeNone:
		return "no policy change is implied"
	default:
		return "learning yielded no policy"
	}
}
