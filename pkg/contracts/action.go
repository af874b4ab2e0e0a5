package contracts

// ActionState is the derived availability of a candidate action.
type ActionState string

const (
	ActionAllowed    ActionState = "ALLOWED"
	ActionRestricted ActionState = "RESTRICTED"
	ActionBlocked    ActionState = "BLOCKED"
)

// ActionSpec identifies a candidate action and what it demands of the agent
// performing it. Specs are static catalogue entries; they carry no derived
// state.
type ActionSpec struct {
	Name              string           `json:"name"`
	Category          ActionCategory   `json:"category"`
	RequiredAuthority int              `json:"required_authority"`
	RequiredSurface   ExecutionSurface `json:"required_surface"`
}

// DoAction is a named candidate action with its derived availability.
type DoAction struct {
	Spec   ActionSpec  `json:"spec"`
	State  ActionState `json:"state"`
	Reason string      `json:"reason"`
}

// SurfaceCategory is one of the five coarse action categories of the
// action-surface derivation.
type SurfaceCategory string

const (
	SurfaceCategoryRead     SurfaceCategory = "READ"
	SurfaceCategoryWrite    SurfaceCategory = "WRITE"
	SurfaceCategoryDecide   SurfaceCategory = "DECIDE"
	SurfaceCategoryExecute  SurfaceCategory = "EXECUTE"
	SurfaceCategoryEscalate SurfaceCategory = "ESCALATE"
)

// SurfaceEntry is the derived state of one coarse action category.
type SurfaceEntry struct {
	Category SurfaceCategory `json:"category"`
	State    ActionState     `json:"state"`
	Reason   string          `json:"reason"`
}

// ActionSurface is the derived availability of the five coarse categories,
// always in the order READ, WRITE, DECIDE, EXECUTE, ESCALATE.
type ActionSurface struct {
	Entries []SurfaceEntry `json:"entries"`
}

// Entry returns the surface entry for a category, or nil if absent.
func (s *ActionSurface) Entry(cat SurfaceCategory) *SurfaceEntry {
	for i := range s.Entries {
		if s.Entries[i].Category == cat {
			return &s.Entries[i]
		}
	}
	return nil
}
