package contracts

// HierarchyLevel names one level of the Organization → Domain → Agent chain.
type HierarchyLevel string

const (
	LevelOrganization HierarchyLevel = "ORGANIZATION"
	LevelDomain       HierarchyLevel = "DOMAIN"
	LevelAgent        HierarchyLevel = "AGENT"
)

// ReasoningTag marks a reasoning step as allowing or restricting.
type ReasoningTag string

const (
	TagAllow    ReasoningTag = "ALLOW"
	TagRestrict ReasoningTag = "RESTRICT"
)

// AuthoritySource is one entry of the root-to-leaf source path: a hierarchy
// level together with the ceiling it contributes.
type AuthoritySource struct {
	Level   HierarchyLevel `json:"level"`
	Name    string         `json:"name"`
	Ceiling int            `json:"ceiling"`
}

// ReasoningStep is one ordered step of the authority derivation trail.
// A step is tagged RESTRICT when its level's own ceiling is strictly below
// the level above it; the organization step is always ALLOW.
type ReasoningStep struct {
	Level  HierarchyLevel `json:"level"`
	Tag    ReasoningTag   `json:"tag"`
	Detail string         `json:"detail"`
}

// AuthorityResult is the derived authority of a hierarchy chain. It is
// produced fresh on every query and never cached across input changes.
type AuthorityResult struct {
	// EffectiveAuthorityLevel is the minimum ceiling across the chain.
	EffectiveAuthorityLevel int `json:"effective_authority_level"`

	// SourcePath lists each present hierarchy level in root-to-leaf order.
	SourcePath []AuthoritySource `json:"source_path"`

	// BlockedActions are human-readable explanations of what the derived
	// level and the agent's configuration rule out. Entries are additive:
	// each triggered condition contributes exactly one string.
	BlockedActions []string `json:"blocked_actions"`

	// Reasoning is the ordered derivation trail, one step per level.
	Reasoning []ReasoningStep `json:"reasoning"`
}
