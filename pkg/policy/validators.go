package policy

import (
	"strings"

	"github.com/warden-systems/warden/pkg/contracts"
)

// minJustificationLen is the shortest justification the declared-intent
// check accepts, shared with override reasons.
const minJustificationLen = 10

// expandIndicators mark an after-state as an authority expansion. Scanned
// as lowercase substrings; any hit classifies the change EXPAND.
var expandIndicators = []string{
	"elevated authority",
	"would have elevated",
	"expanded",
	"broader",
	"additional permission",
	"new permission",
	"widened",
}

// restrictIndicators mark an after-state as restrictive.
var restrictIndicators = []string{
	"remains subject",
	"required for comparable",
	"restricted",
	"no standing",
	"must be approved",
	"narrowed",
	"denied",
}

// ValidateCompliance runs the four compliance checks on a proposal:
// declared intent, bounded authority, explainability, drift prevention.
func ValidateCompliance(p *contracts.PolicyChangeProposal) contracts.ComplianceResult {
	checks := make([]contracts.CheckResult, 0, 4)

	if len(strings.TrimSpace(p.Justification)) >= minJustificationLen {
		checks = append(checks, contracts.CheckResult{
			Name: "declared_intent", Passed: true,
			Reason: "the approver recorded a substantive justification",
		})
	} else {
		checks = append(checks, contracts.CheckResult{
			Name: "declared_intent", Passed: false,
			Reason: "justification is missing or shorter than 10 characters",
		})
	}

	if p.ChangeType == contracts.ChangeAuthorityAdjustment && impliesExpansion(p.After.Description) {
		checks = append(checks, contracts.CheckResult{
			Name: "bounded_authority", Passed: false,
			Reason: "the proposed after-state implies an authority elevation",
		})
	} else {
		checks = append(checks, contracts.CheckResult{
			Name: "bounded_authority", Passed: true,
			Reason: "the proposed change does not elevate authority",
		})
	}

	if strings.TrimSpace(p.Before.Description) != "" &&
		strings.TrimSpace(p.After.Description) != "" &&
		strings.TrimSpace(p.Reasoning) != "" {
		checks = append(checks, contracts.CheckResult{
			Name: "explainability", Passed: true,
			Reason: "before state, after state, and system reasoning are all present",
		})
	} else {
		checks = append(checks, contracts.CheckResult{
			Name: "explainability", Passed: false,
			Reason: "before state, after state, and system reasoning must all be non-empty",
		})
	}

	if p.Status == contracts.ProposalConfirmed {
		checks = append(checks, contracts.CheckResult{
			Name: "drift_prevention", Passed: true,
			Reason: "the proposal was explicitly confirmed by a human",
		})
	} else {
		checks = append(checks, contracts.CheckResult{
			Name: "drift_prevention", Passed: false,
			Reason: "only CONFIRMED proposals may be learned from",
		})
	}

	return contracts.ComplianceResult{Checks: checks}
}

// ValidateLayerBoundary determines which LPS layers a change touches and
// rejects any change reaching a forbidden layer, or a non-restrictive
// change to the AUTHORITY layer.
func ValidateLayerBoundary(p *contracts.PolicyChangeProposal) contracts.LayerBoundaryResult {
	layers := []contracts.LPSLayer{contracts.LayerPolicy}
	switch p.ChangeType {
	case contracts.ChangeAuthorityAdjustment:
		layers = append(layers, contracts.LayerAuthority)
	case contracts.ChangeActionPermission:
		layers = append(layers, contracts.LayerCapability)
	}

	for _, layer := range layers {
		switch layer {
		case contracts.LayerIdentity, contracts.LayerMandate, contracts.LayerExecution:
			return contracts.LayerBoundaryResult{
				AffectedLayers: layers,
				Valid:          false,
				Reason:         "the " + string(layer) + " layer is not writable by policy learning",
			}
		}
	}

	for _, layer := range layers {
		if layer == contracts.LayerAuthority && strings.Contains(strings.ToLower(p.After.Description), "elevated") {
			return contracts.LayerBoundaryResult{
				AffectedLayers: layers,
				Valid:          false,
				Reason:         "AUTHORITY-layer changes must be restrictive, not an elevation",
			}
		}
	}

	return contracts.LayerBoundaryResult{
		AffectedLayers: layers,
		Valid:          true,
		Reason:         "all affected layers are writable by policy learning",
	}
}

// ValidateMonotonicity classifies the change direction from the after-state
// text. EXPAND is always invalid: learned policy may only maintain or
// restrict.
func ValidateMonotonicity(p *contracts.PolicyChangeProposal) contracts.MonotonicityResult {
	direction := ClassifyDirection(p.After.Description)
	if direction == contracts.DirectionExpand {
		return contracts.MonotonicityResult{
			Direction: direction,
			Valid:     false,
			Reason:    "the after-state implies an expansion of authority",
		}
	}
	return contracts.MonotonicityResult{
		Direction: direction,
		Valid:     true,
		Reason:    "the change maintains or restricts authority",
	}
}

// ClassifyDirection scans the text against the fixed indicator phrase
// lists. Expansion indicators win over restriction indicators; a text with
// neither is MAINTAIN.
func ClassifyDirection(text string) contracts.ChangeDirection {
	lowered := strings.ToLower(text)
	for _, phrase := range expandIndicators {
		if strings.Contains(lowered, phrase) {
			return contracts.DirectionExpand
		}
	}
	for _, phrase := range restrictIndicators {
		if strings.Contains(lowered, phrase) {
			return contracts.DirectionRestrict
		}
	}
	return contracts.DirectionMaintain
}

// Validate runs all three validators and bundles their outcomes.
func Validate(p *contracts.PolicyChangeProposal) contracts.ValidationReport {
	return contracts.ValidationReport{
		Compliance:    ValidateCompliance(p),
		LayerBoundary: ValidateLayerBoundary(p),
		Monotonicity:  ValidateMonotonicity(p),
	}
}

func impliesExpansion(text string) bool {
	return ClassifyDirection(text) == contracts.DirectionExpand
}
