// Package runtime derives per-action runtime verdicts and execution
// readiness. Both derivations are explanatory only: they decide and
// explain, and are structurally incapable of executing anything.
package runtime

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/warden-systems/warden/pkg/contracts"
)

// ApproverRoleFor maps an escalation behavior to the role that must sign
// off. These strings are part of the engine's fixed-text contract.
func ApproverRoleFor(behavior contracts.EscalationBehavior) string {
	if behavior == contracts.EscalationHumanRequired {
		return "Human Operator"
	}
	return "Domain Administrator"
}

// runtimeConstraint is appended to every verdict as its final constraint.
const runtimeConstraint = "no execution permitted in this phase"

// eappConstraint is the acknowledged placeholder for the compliance layer.
const eappConstraint = "EAPP compliance evaluation is deferred in this phase; no additional constraints recorded"

// DeriveVerdict produces the canonical, fully-reasoned verdict for one
// agent and one candidate action. The verdict's constraints re-examine the
// hierarchy in the canonical source order ORGANIZATION, DOMAIN, AGENT,
// EAPP, RUNTIME; the decision itself maps directly from the action's
// derived state.
func DeriveVerdict(
	org *contracts.Organization,
	domain *contracts.Domain,
	agent *contracts.Agent,
	action contracts.DoAction,
	auth *contracts.AuthorityResult,
) *contracts.RuntimeVerdict {
	verdict := &contracts.RuntimeVerdict{
		Subject: contracts.VerdictSubject{
			OrganizationID: org.ID,
			DomainID:       domain.ID,
			AgentID:        agent.ID,
		},
		Action:   action.Spec,
		Decision: decisionFor(action.State),
		Execution: contracts.ExecutionGuarantees{
			Attempted:     true,
			Executed:      false,
			ExecutionPath: nil,
		},
	}

	verdict.AppliedConstraints = deriveConstraints(org, domain, agent, action.Spec)

	if verdict.Decision.Status == contracts.VerdictEscalationRequired {
		verdict.Escalation = &contracts.EscalationDescriptor{
			Behavior:     agent.EscalationBehavior,
			ApproverRole: ApproverRoleFor(agent.EscalationBehavior),
			Reason:       action.Reason,
		}
	}

	verdict.ContentHash = hashVerdict(verdict)
	verdict.VerdictID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(verdict.ContentHash)).String()
	return verdict
}

func decisionFor(state contracts.ActionState) contracts.VerdictDecision {
	switch state {
	case contracts.ActionAllowed:
		return contracts.VerdictDecision{Status: contracts.VerdictAllowed, Confidence: contracts.ConfidenceHigh}
	case contracts.ActionRestricted:
		return contracts.VerdictDecision{Status: contracts.VerdictEscalationRequired, Confidence: contracts.ConfidenceMedium}
	default:
		return contracts.VerdictDecision{Status: contracts.VerdictBlocked, Confidence: contracts.ConfidenceHigh}
	}
}

func deriveConstraints(
	org *contracts.Organization,
	domain *contracts.Domain,
	agent *contracts.Agent,
	spec contracts.ActionSpec,
) []contracts.AttributedConstraint {
	var constraints []contracts.AttributedConstraint
	add := func(source contracts.ConstraintSource, description string) {
		constraints = append(constraints, contracts.AttributedConstraint{Source: source, Description: description})
	}

	if org.AuthorityCeiling < spec.RequiredAuthority {
		add(contracts.SourceOrganization, fmt.Sprintf(
			"organization ceiling (%d) is below the authority required by %q (%d)",
			org.AuthorityCeiling, spec.Name, spec.RequiredAuthority))
	}

	if domain.AuthorityCeiling < spec.RequiredAuthority {
		add(contracts.SourceDomain, fmt.Sprintf(
			"domain %q ceiling (%d) is below the authority required by %q (%d)",
			domain.Name, domain.AuthorityCeiling, spec.Name, spec.RequiredAuthority))
	}
	if !domain.AllowsCategory(spec.Category) {
		add(contracts.SourceDomain, fmt.Sprintf(
			"domain %q does not allow %s actions", domain.Name, spec.Category))
	}

	if agent.AutonomyLevel < spec.RequiredAuthority {
		add(contracts.SourceAgent, fmt.Sprintf(
			"agent autonomy (%d) is below the authority required by %q (%d)",
			agent.AutonomyLevel, spec.Name, spec.RequiredAuthority))
	}
	if agent.ExecutionSurface.Rank() < spec.RequiredSurface.Rank() {
		add(contracts.SourceAgent, fmt.Sprintf(
			"agent surface %s is below the %s surface required by %q",
			agent.ExecutionSurface, spec.RequiredSurface, spec.Name))
	}
	switch agent.ExecutionType {
	case contracts.TypeAdvisory:
		if spec.Category != contracts.CategoryDataAccess && spec.Category != contracts.CategoryReporting {
			add(contracts.SourceAgent, "advisory agents are limited to data access and reporting")
		}
	case contracts.TypeDecision:
		if spec.Category == contracts.CategoryExecution || spec.Category == contracts.CategoryOperations {
			add(contracts.SourceAgent, "decision agents cannot perform execution or operations actions")
		}
	}

	add(contracts.SourceEAPP, eappConstraint)
	add(contracts.SourceRuntime, runtimeConstraint)
	return constraints
}

// hashVerdict computes the sha256 of the canonical (JCS) encoding of the
// verdict body. The ID and hash fields are zero at this point, so the hash
// covers only derived content.
func hashVerdict(v *contracts.RuntimeVerdict) string {
	data, err := json.Marshal(v)
	if err != nil {
		// The verdict is a closed struct of marshalable fields; an error
		// here means a programming bug, not bad input.
		panic(fmt.Sprintf("verdict marshal: %v", err))
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		panic(fmt.Sprintf("verdict canonicalize: %v", err))
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:])
}
