package actions

import (
	"fmt"

	"github.com/warden-systems/warden/pkg/contracts"
)

// Evaluate derives the availability of one action spec for one agent.
//
// The checks run in fixed order and the first failure supplies the reason:
//  1. surface: the agent's surface rank must reach the action's required
//     surface rank, else BLOCKED;
//  2. type: ADVISORY agents may only touch DATA_ACCESS and REPORTING;
//     DECISION agents may not touch EXECUTION or OPERATIONS; EXECUTION
//     agents carry no type restriction;
//  3. authority: at or above the requirement is ALLOWED, exactly one
//     level below is RESTRICTED, further below is BLOCKED.
func Evaluate(spec contracts.ActionSpec, effectiveAuthority int, surface contracts.ExecutionSurface, execType contracts.ExecutionType) (contracts.ActionState, string) {
	if reason, ok := surfaceCheck(spec, surface); !ok {
		return contracts.ActionBlocked, reason
	}
	if reason, ok := typeCheck(spec, execType); !ok {
		return contracts.ActionBlocked, reason
	}
	return authorityCheck(spec, effectiveAuthority)
}

func surfaceCheck(spec contracts.ActionSpec, surface contracts.ExecutionSurface) (string, bool) {
	if surface.Rank() >= spec.RequiredSurface.Rank() {
		return "", true
	}

	switch {
	case surface == contracts.SurfaceRead && spec.RequiredSurface == contracts.SurfaceExecute:
		return "execution requires an EXECUTE surface; the agent is restricted to reading information", false
	case surface == contracts.SurfaceRead:
		return "this action requires write access; the agent is restricted to reading information", false
	default:
		return "this action requires an EXECUTE surface; the agent is limited to write access", false
	}
}

func typeCheck(spec contracts.ActionSpec, execType contracts.ExecutionType) (string, bool) {
	switch execType {
	case contracts.TypeAdvisory:
		if spec.Category != contracts.CategoryDataAccess && spec.Category != contracts.CategoryReporting {
			return "advisory agents are limited to data access and reporting", false
		}
	case contracts.TypeDecision:
		if spec.Category == contracts.CategoryExecution || spec.Category == contracts.CategoryOperations {
			return "decision agents cannot perform execution or operations actions", false
		}
	}
	return "", true
}

func authorityCheck(spec contracts.ActionSpec, effective int) (contracts.ActionState, string) {
	switch gap := spec.RequiredAuthority - effective; {
	case gap <= 0:
		return contracts.ActionAllowed, fmt.Sprintf("effective authority %d meets the required level %d", effective, spec.RequiredAuthority)
	case gap == 1:
		return contracts.ActionRestricted, fmt.Sprintf("effective authority %d is one level below the required %d; escalation required", effective, spec.RequiredAuthority)
	default:
		return contracts.ActionBlocked, fmt.Sprintf("effective authority %d is more than one level below the required %d", effective, spec.RequiredAuthority)
	}
}

// DeriveSurface derives the five coarse action categories for an agent.
// Entries come back in the fixed order READ, WRITE, DECIDE, EXECUTE,
// ESCALATE.
func DeriveSurface(agent *contracts.Agent, auth *contracts.AuthorityResult) *contracts.ActionSurface {
	surface := &contracts.ActionSurface{Entries: make([]contracts.SurfaceEntry, 0, len(surfaceSpecs))}
	for _, entry := range surfaceSpecs {
		state, reason := Evaluate(entry.spec, auth.EffectiveAuthorityLevel, agent.ExecutionSurface, agent.ExecutionType)
		surface.Entries = append(surface.Entries, contracts.SurfaceEntry{
			Category: entry.category,
			State:    state,
			Reason:   reason,
		})
	}
	return surface
}

// DeriveDoActions expands the agent's role catalogue into concrete
// candidate actions with derived availability, in catalogue order.
func DeriveDoActions(agent *contracts.Agent, auth *contracts.AuthorityResult) []contracts.DoAction {
	specs := CatalogFor(agent.RoleFamily)
	out := make([]contracts.DoAction, 0, len(specs))
	for _, spec := range specs {
		state, reason := Evaluate(spec, auth.EffectiveAuthorityLevel, agent.ExecutionSurface, agent.ExecutionType)
		out = append(out, contracts.DoAction{Spec: spec, State: state, Reason: reason})
	}
	return out
}
