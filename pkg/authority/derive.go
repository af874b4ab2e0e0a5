// Package authority derives effective authority for hierarchy chains.
//
// Effective authority is the strict top-down minimum of the ceilings along
// the Organization → Domain → Agent chain. The derivation is a pure, total
// function: it always succeeds, produces its reasoning trail in root-to-leaf
// order, and never mutates its inputs.
package authority

import (
	"fmt"

	"github.com/warden-systems/warden/pkg/contracts"
)

// DeriveOrganization derives authority for the organization level alone.
func DeriveOrganization(org *contracts.Organization) *contracts.AuthorityResult {
	res := &contracts.AuthorityResult{
		EffectiveAuthorityLevel: org.AuthorityCeiling,
		SourcePath: []contracts.AuthoritySource{
			{Level: contracts.LevelOrganization, Name: org.Name, Ceiling: org.AuthorityCeiling},
		},
		BlockedActions: []string{},
		Reasoning: []contracts.ReasoningStep{
			// The organization has no parent, so its step is always ALLOW.
			{
				Level:  contracts.LevelOrganization,
				Tag:    contracts.TagAllow,
				Detail: fmt.Sprintf("organization %q sets the absolute authority ceiling at %d", org.Name, org.AuthorityCeiling),
			},
		},
	}
	res.BlockedActions = append(res.BlockedActions, thresholdBlocks(res.EffectiveAuthorityLevel)...)
	return res
}

// DeriveDomain derives authority for an organization/domain pair.
func DeriveDomain(org *contracts.Organization, domain *contracts.Domain) *contracts.AuthorityResult {
	res := DeriveOrganization(org)
	res.BlockedActions = []string{}

	res.SourcePath = append(res.SourcePath, contracts.AuthoritySource{
		Level: contracts.LevelDomain, Name: domain.Name, Ceiling: domain.AuthorityCeiling,
	})

	if domain.AuthorityCeiling < org.AuthorityCeiling {
		res.Reasoning = append(res.Reasoning, contracts.ReasoningStep{
			Level:  contracts.LevelDomain,
			Tag:    contracts.TagRestrict,
			Detail: fmt.Sprintf("domain %q narrows the ceiling from %d to %d", domain.Name, org.AuthorityCeiling, domain.AuthorityCeiling),
		})
		res.BlockedActions = append(res.BlockedActions, fmt.Sprintf(
			"domain %q ceiling (%d) is lower than organization ceiling (%d): actions above level %d are blocked",
			domain.Name, domain.AuthorityCeiling, org.AuthorityCeiling, domain.AuthorityCeiling))
		res.EffectiveAuthorityLevel = domain.AuthorityCeiling
	} else {
		res.Reasoning = append(res.Reasoning, contracts.ReasoningStep{
			Level:  contracts.LevelDomain,
			Tag:    contracts.TagAllow,
			Detail: fmt.Sprintf("domain %q ceiling (%d) does not narrow the inherited ceiling (%d)", domain.Name, domain.AuthorityCeiling, org.AuthorityCeiling),
		})
	}

	res.BlockedActions = append(res.BlockedActions, thresholdBlocks(res.EffectiveAuthorityLevel)...)
	return res
}

// DeriveAgent derives authority for a full organization/domain/agent chain.
func DeriveAgent(org *contracts.Organization, domain *contracts.Domain, agent *contracts.Agent) *contracts.AuthorityResult {
	res := DeriveOrganization(org)
	res.BlockedActions = []string{}

	inherited := org.AuthorityCeiling
	res.SourcePath = append(res.SourcePath, contracts.AuthoritySource{
		Level: contracts.LevelDomain, Name: domain.Name, Ceiling: domain.AuthorityCeiling,
	})
	if domain.AuthorityCeiling < inherited {
		res.Reasoning = append(res.Reasoning, contracts.ReasoningStep{
			Level:  contracts.LevelDomain,
			Tag:    contracts.TagRestrict,
			Detail: fmt.Sprintf("domain %q narrows the ceiling from %d to %d", domain.Name, inherited, domain.AuthorityCeiling),
		})
		res.BlockedActions = append(res.BlockedActions, fmt.Sprintf(
			"domain %q ceiling (%d) is lower than organization ceiling (%d): actions above level %d are blocked",
			domain.Name, domain.AuthorityCeiling, org.AuthorityCeiling, domain.AuthorityCeiling))
		inherited = domain.AuthorityCeiling
	} else {
		res.Reasoning = append(res.Reasoning, contracts.ReasoningStep{
			Level:  contracts.LevelDomain,
			Tag:    contracts.TagAllow,
			Detail: fmt.Sprintf("domain %q ceiling (%d) does not narrow the inherited ceiling (%d)", domain.Name, domain.AuthorityCeiling, inherited),
		})
	}

	res.SourcePath = append(res.SourcePath, contracts.AuthoritySource{
		Level: contracts.LevelAgent, Name: agent.Name, Ceiling: agent.AutonomyLevel,
	})
	if agent.AutonomyLevel < inherited {
		res.Reasoning = append(res.Reasoning, contracts.ReasoningStep{
			Level:  contracts.LevelAgent,
			Tag:    contracts.TagRestrict,
			Detail: fmt.Sprintf("agent %q autonomy (%d) narrows the ceiling from %d to %d", agent.Name, agent.AutonomyLevel, inherited, agent.AutonomyLevel),
		})
		// inherited may still be the organization's ceiling when the domain
		// did not narrow, so the label names the inherited value, not a level.
		res.BlockedActions = append(res.BlockedActions, fmt.Sprintf(
			"agent %q autonomy (%d) is lower than inherited ceiling (%d): actions above level %d are blocked",
			agent.Name, agent.AutonomyLevel, inherited, agent.AutonomyLevel))
		inherited = agent.AutonomyLevel
	} else {
		res.Reasoning = append(res.Reasoning, contracts.ReasoningStep{
			Level:  contracts.LevelAgent,
			Tag:    contracts.TagAllow,
			Detail: fmt.Sprintf("agent %q autonomy (%d) does not narrow the inherited ceiling (%d)", agent.Name, agent.AutonomyLevel, inherited),
		})
	}

	res.EffectiveAuthorityLevel = inherited
	res.BlockedActions = append(res.BlockedActions, thresholdBlocks(inherited)...)
	res.BlockedActions = append(res.BlockedActions, agentBlocks(agent)...)
	return res
}

// thresholdBlocks lists what the derived level alone rules out. The
// thresholds are additive: a level of 0 triggers all three.
func thresholdBlocks(effective int) []string {
	var blocks []string
	if effective < 3 {
		blocks = append(blocks, "high-impact actions requiring authority level 3 are blocked")
	}
	if effective < 2 {
		blocks = append(blocks, "write operations requiring authority level 2 are blocked")
	}
	if effective < 1 {
		blocks = append(blocks, "all autonomous actions are blocked; every action requires approval")
	}
	return blocks
}

// agentBlocks lists what the agent's own configuration rules out,
// independent of the derived level.
func agentBlocks(agent *contracts.Agent) []string {
	var blocks []string
	if agent.ExecutionSurface == contracts.SurfaceRead {
		blocks = append(blocks, "execution surface is restricted to reading information")
	}
	switch agent.ExecutionType {
	case contracts.TypeAdvisory:
		blocks = append(blocks, "advisory agents cannot decide or execute")
	case contracts.TypeDecision:
		blocks = append(blocks, "decision agents cannot directly execute operations")
	}
	if agent.EscalationBehavior == contracts.EscalationHumanRequired {
		blocks = append(blocks, "all escalations require human approval")
	}
	return blocks
}
