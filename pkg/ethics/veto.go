// Package ethics implements the ethical veto: a pattern match of a
// proposed action against an agent's immutable commitments, consulted
// before any authority arithmetic. A block raised here is final: no
// approval, learned policy, or override can reverse it.
package ethics

import (
	"fmt"
	"strings"

	"github.com/warden-systems/warden/pkg/contracts"
)

// VetoStatus is the outcome of an ethical evaluation.
type VetoStatus string

const (
	EthicsAllowed VetoStatus = "ETHICS_ALLOWED"
	EthicsBlocked VetoStatus = "ETHICS_BLOCKED"
)

// ActionDescriptor is the simplified view of an action the veto sees: a
// type and a free-text description, independent of the authority pipeline.
type ActionDescriptor struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Verdict is the result of the ethical veto.
type Verdict struct {
	Status VetoStatus `json:"status"`

	// ViolatedCommitment is the commitment text that raised the block.
	ViolatedCommitment string `json:"violated_commitment,omitempty"`

	// MatchedKeyword is the commitment keyword found in the action text.
	MatchedKeyword string `json:"matched_keyword,omitempty"`

	Explanation string `json:"explanation"`
}

// Blocked reports whether the verdict is a veto.
func (v Verdict) Blocked() bool { return v.Status == EthicsBlocked }

// negationPatterns mark a commitment as restrictive. The scan is ordered;
// multi-word patterns come before their single-word prefixes.
var negationPatterns = []string{
	"must not",
	"not allowed",
	"prohibited from",
	"cannot",
	"never",
	"forbidden",
}

// stopWords are dropped from commitment keywords before matching. Keyword
// matching against free text is knowingly fragile (a rephrased action can
// slip past it); the classifier is kept as-is because tightening it would
// change observable behavior.
var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"will": true, "been": true, "were": true, "their": true, "other": true,
	"about": true, "which": true, "would": true, "there": true, "should": true,
	"could": true, "them": true, "then": true, "than": true, "when": true,
	"what": true, "your": true, "into": true, "only": true, "also": true,
	"any": true, "ever": true, "must": true, "never": true, "cannot": true,
	"allowed": true, "forbidden": true, "prohibited": true,
}

// Evaluate scans every commitment and operational constraint of the agent
// for a negation pattern; when one is found, the remaining keywords of the
// restriction (longer than three characters, stop words removed) are
// matched against the action's text. The first keyword hit blocks.
func Evaluate(agent *contracts.Agent, action ActionDescriptor) Verdict {
	actionText := strings.ToLower(action.Type + " " + action.Description)

	restrictions := make([]string, 0, len(agent.Commitments)+len(agent.OperationalConstraints))
	restrictions = append(restrictions, agent.Commitments...)
	restrictions = append(restrictions, agent.OperationalConstraints...)

	for _, restriction := range restrictions {
		keyword, hit := violates(restriction, actionText)
		if !hit {
			continue
		}
		return Verdict{
			Status:             EthicsBlocked,
			ViolatedCommitment: restriction,
			MatchedKeyword:     keyword,
			Explanation: fmt.Sprintf(
				"This action conflicts with the agent's ethical commitment to %q; this restriction cannot be overridden.",
				restriction),
		}
	}

	return Verdict{
		Status:      EthicsAllowed,
		Explanation: "no ethical commitment restricts this action",
	}
}

func violates(restriction, actionText string) (string, bool) {
	lowered := strings.ToLower(restriction)

	idx := -1
	patternLen := 0
	for _, pattern := range negationPatterns {
		if at := strings.Index(lowered, pattern); at >= 0 && (idx < 0 || at < idx) {
			idx = at
			patternLen = len(pattern)
		}
	}
	if idx < 0 {
		return "", false
	}

	for _, keyword := range keywords(lowered[idx+patternLen:]) {
		if strings.Contains(actionText, keyword) {
			return keyword, true
		}
	}
	return "", false
}

func keywords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 3 && !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}

// Veto adapts the ethical evaluation to the persona-alignment gate's
// extension point, so a readiness derivation can consult ethics without
// the gate changing shape.
type Veto struct{}

// Aligned implements the runtime persona-aligner contract over the
// action's catalogue identity.
func (Veto) Aligned(agent *contracts.Agent, action contracts.ActionSpec) (bool, string) {
	verdict := Evaluate(agent, ActionDescriptor{
		Type:        string(action.Category),
		Description: strings.ReplaceAll(action.Name, "_", " "),
	})
	if verdict.Blocked() {
		return false, verdict.Explanation
	}
	return true, verdict.Explanation
}
