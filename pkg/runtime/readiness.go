package runtime

import (
	"fmt"

	"github.com/warden-systems/warden/pkg/contracts"
)

// Canonical readiness summaries. One sentence per folded state; audit
// trails and downstream surfaces key on this exact language.
const (
	SummaryNotEligible     = "Execution is not eligible: one or more readiness gates failed."
	SummaryPendingApproval = "Execution is eligible pending human approval of the required escalation."
	SummaryAutomatic       = "Execution is eligible automatically: all readiness gates passed and no escalation is required."
	SummaryBlockedHard     = "Execution is hard-blocked: authority and action surface are both incompatible."
)

// PersonaAligner is the extension point for persona/ethics integration in
// the persona-alignment gate. The default implementation always aligns;
// wiring a real ethics check in does not change the gate's shape.
type PersonaAligner interface {
	Aligned(agent *contracts.Agent, action contracts.ActionSpec) (bool, string)
}

// DefaultAligner always passes, pending persona integration.
type DefaultAligner struct{}

// Aligned implements PersonaAligner.
func (DefaultAligner) Aligned(*contracts.Agent, contracts.ActionSpec) (bool, string) {
	return true, "persona alignment is not yet enforced; the gate passes by default"
}

// DeriveReadiness evaluates the four independent readiness gates for one
// agent/action pair and folds them into a single eligibility state:
//
//   - both the authority and surface gates failing is BLOCKED_HARD and
//     short-circuits the fold (the other two gates' results are ignored);
//   - any single failing gate is NOT_ELIGIBLE;
//   - all gates passing with a required escalation is
//     ELIGIBLE_PENDING_APPROVAL;
//   - all gates passing without one is ELIGIBLE_AUTOMATIC.
func DeriveReadiness(
	agent *contracts.Agent,
	domain *contracts.Domain,
	action contracts.DoAction,
	auth *contracts.AuthorityResult,
	verdict *contracts.RuntimeVerdict,
	aligner PersonaAligner,
) *contracts.ExecutionReadiness {
	if aligner == nil {
		aligner = DefaultAligner{}
	}

	gates := contracts.ReadinessGates{
		AuthorityAlignment:         authorityGate(domain, action.Spec, auth),
		ActionSurfaceCompatibility: surfaceGate(agent, action.Spec),
		EscalationResolution:       escalationGate(agent, verdict),
		PersonaAlignment:           personaGate(agent, action.Spec, aligner),
	}

	state, summary := fold(gates, verdict)
	return &contracts.ExecutionReadiness{State: state, Gates: gates, Summary: summary}
}

func authorityGate(domain *contracts.Domain, spec contracts.ActionSpec, auth *contracts.AuthorityResult) contracts.GateResult {
	gate := contracts.GateResult{Name: "authorityAlignment"}

	if auth.EffectiveAuthorityLevel < spec.RequiredAuthority {
		gate.Reason = fmt.Sprintf("effective authority %d is below the required level %d",
			auth.EffectiveAuthorityLevel, spec.RequiredAuthority)
		return gate
	}
	if !domain.AllowsCategory(spec.Category) {
		gate.Reason = fmt.Sprintf("domain %q does not allow %s actions", domain.Name, spec.Category)
		return gate
	}

	gate.Passed = true
	gate.Reason = fmt.Sprintf("effective authority %d meets the required level %d and the domain allows %s actions",
		auth.EffectiveAuthorityLevel, spec.RequiredAuthority, spec.Category)
	return gate
}

func surfaceGate(agent *contracts.Agent, spec contracts.ActionSpec) contracts.GateResult {
	gate := contracts.GateResult{Name: "actionSurfaceCompatibility"}

	if agent.ExecutionSurface.Rank() < spec.RequiredSurface.Rank() {
		gate.Reason = fmt.Sprintf("agent surface %s is below the required %s surface",
			agent.ExecutionSurface, spec.RequiredSurface)
		return gate
	}

	gate.Passed = true
	gate.Reason = fmt.Sprintf("agent surface %s covers the required %s surface",
		agent.ExecutionSurface, spec.RequiredSurface)
	return gate
}

func escalationGate(agent *contracts.Agent, verdict *contracts.RuntimeVerdict) contracts.GateResult {
	gate := contracts.GateResult{Name: "escalationResolution"}

	if verdict.Decision.Status != contracts.VerdictEscalationRequired {
		gate.Passed = true
		gate.Reason = "the verdict requires no escalation"
		return gate
	}

	if agent.EscalationBehavior == "" {
		gate.Reason = "the verdict requires escalation but the agent declares no escalation behavior"
		return gate
	}
	if verdict.Escalation == nil || verdict.Escalation.ApproverRole == "" {
		gate.Reason = "the verdict requires escalation but resolves no approver role"
		return gate
	}

	gate.Passed = true
	gate.Reason = fmt.Sprintf("escalation resolves to approver role %q", verdict.Escalation.ApproverRole)
	return gate
}

func personaGate(agent *contracts.Agent, spec contracts.ActionSpec, aligner PersonaAligner) contracts.GateResult {
	gate := contracts.GateResult{Name: "personaAlignment"}
	gate.Passed, gate.Reason = aligner.Aligned(agent, spec)
	return gate
}

func fold(gates contracts.ReadinessGates, verdict *contracts.RuntimeVerdict) (contracts.ReadinessState, string) {
	if !gates.AuthorityAlignment.Passed && !gates.ActionSurfaceCompatibility.Passed {
		return contracts.ReadinessBlockedHard, SummaryBlockedHard
	}
	if !gates.AuthorityAlignment.Passed || !gates.ActionSurfaceCompatibility.Passed ||
		!gates.EscalationResolution.Passed || !gates.PersonaAlignment.Passed {
		return contracts.ReadinessNotEligible, SummaryNotEligible
	}
	if verdict.Decision.Status == contracts.VerdictEscalationRequired {
		return contracts.ReadinessPendingApproval, SummaryPendingApproval
	}
	return contracts.ReadinessAutomatic, SummaryAutomatic
}
