// Package staging turns a verdict/readiness pair into a human-reviewable,
// then human-decided, record.
//
// The state machine is deliberately small: STAGED is the only initial
// state, APPROVED and REJECTED are terminal, and no transition executes
// the underlying action.
package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/warden-systems/warden/pkg/contracts"
)

var (
	// ErrHardBlocked rejects staging of an action whose readiness folded
	// to BLOCKED_HARD.
	ErrHardBlocked = errors.New("action is hard-blocked and cannot be staged")

	// ErrNotStaged rejects approve/reject on a record outside STAGED.
	ErrNotStaged = errors.New("staged action is not in STAGED state")

	// ErrEmptyJustification rejects approval intents without substance.
	ErrEmptyJustification = errors.New("approval intent requires a non-empty justification")

	// ErrNotFound reports an unknown staged-action id.
	ErrNotFound = errors.New("staged action not found")
)

// Manager owns the staged-action lifecycle.
type Manager struct {
	mu         sync.Mutex
	staged     map[string]*contracts.StagedAction
	conditions *ConditionValidator
	clock      func() time.Time
}

// NewManager creates a staging manager.
func NewManager() (*Manager, error) {
	validator, err := NewConditionValidator()
	if err != nil {
		return nil, err
	}
	return &Manager{
		staged:     make(map[string]*contracts.StagedAction),
		conditions: validator,
		clock:      time.Now,
	}, nil
}

// WithClock overrides the clock for deterministic testing.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// Stage creates a STAGED action from the four derivation results. The
// record owns frozen deep copies of every input; later mutation of the
// caller's values cannot reach into the snapshot.
func (m *Manager) Stage(
	agent *contracts.Agent,
	action contracts.DoAction,
	verdict *contracts.RuntimeVerdict,
	readiness *contracts.ExecutionReadiness,
	auth *contracts.AuthorityResult,
) (*contracts.StagedAction, error) {
	if readiness.State == contracts.ReadinessBlockedHard {
		return nil, fmt.Errorf("%w: %s", ErrHardBlocked, readiness.Summary)
	}

	frozenAgent, err := deepCopy(*agent)
	if err != nil {
		return nil, fmt.Errorf("freeze agent: %w", err)
	}
	frozenAction, err := deepCopy(action)
	if err != nil {
		return nil, fmt.Errorf("freeze action: %w", err)
	}
	frozenVerdict, err := deepCopy(*verdict)
	if err != nil {
		return nil, fmt.Errorf("freeze verdict: %w", err)
	}
	frozenReadiness, err := deepCopy(*readiness)
	if err != nil {
		return nil, fmt.Errorf("freeze readiness: %w", err)
	}
	frozenAuth, err := deepCopy(*auth)
	if err != nil {
		return nil, fmt.Errorf("freeze authority: %w", err)
	}

	staged := &contracts.StagedAction{
		ID:        uuid.New().String(),
		State:     contracts.StagedStateStaged,
		Agent:     frozenAgent,
		Action:    frozenAction,
		Verdict:   frozenVerdict,
		Readiness: frozenReadiness,
		Authority: frozenAuth,
		CreatedAt: m.clock(),
	}
	staged.SnapshotHash = snapshotHash(staged)

	m.mu.Lock()
	m.staged[staged.ID] = staged
	m.mu.Unlock()

	return staged, nil
}

// Approve transitions a STAGED action to APPROVED.
func (m *Manager) Approve(stagedID string) (*contracts.StagedAction, error) {
	return m.resolve(stagedID, contracts.StagedStateApproved, "")
}

// Reject transitions a STAGED action to REJECTED with a reason.
func (m *Manager) Reject(stagedID, reason string) (*contracts.StagedAction, error) {
	return m.resolve(stagedID, contracts.StagedStateRejected, reason)
}

func (m *Manager) resolve(stagedID string, target contracts.StagedState, reason string) (*contracts.StagedAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged, ok := m.staged[stagedID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, stagedID)
	}
	if staged.State != contracts.StagedStateStaged {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotStaged, stagedID, staged.State)
	}

	now := m.clock()
	staged.State = target
	staged.ResolvedAt = &now
	staged.RejectReason = reason
	return staged, nil
}

// Get returns a staged action by id.
func (m *Manager) Get(stagedID string) (*contracts.StagedAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged, ok := m.staged[stagedID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, stagedID)
	}
	return staged, nil
}

// CreateIntent records a human's approval intent over a STAGED action.
// The justification must be non-empty after trimming; any attached
// conditions must compile to boolean CEL expressions. Creating an intent
// never transitions the staged action; approval is a separate step.
func (m *Manager) CreateIntent(stagedID string, scope contracts.IntentScope, justification string, conditions []string) (*contracts.ApprovalIntent, error) {
	if strings.TrimSpace(justification) == "" {
		return nil, ErrEmptyJustification
	}

	m.mu.Lock()
	staged, ok := m.staged[stagedID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, stagedID)
	}
	if staged.State != contracts.StagedStateStaged {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotStaged, stagedID, staged.State)
	}

	for i, cond := range conditions {
		if err := m.conditions.Validate(cond); err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
	}

	return &contracts.ApprovalIntent{
		ID:             uuid.New().String(),
		StagedActionID: stagedID,
		Scope:          scope,
		Justification:  strings.TrimSpace(justification),
		Conditions:     conditions,
		CreatedAt:      m.clock(),
	}, nil
}

// EvaluateConditions evaluates an intent's conditions against an
// activation context, for approvers inspecting whether their conditions
// hold. All conditions must hold.
func (m *Manager) EvaluateConditions(intent *contracts.ApprovalIntent, activation map[string]any) (bool, error) {
	for i, cond := range intent.Conditions {
		ok, err := m.conditions.Evaluate(cond, activation)
		if err != nil {
			return false, fmt.Errorf("condition %d: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func deepCopy[T any](in T) (T, error) {
	var out T
	data, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func snapshotHash(staged *contracts.StagedAction) string {
	hashable := struct {
		Agent     contracts.Agent              `json:"agent"`
		Action    contracts.DoAction           `json:"action"`
		Verdict   contracts.RuntimeVerdict     `json:"verdict"`
		Readiness contracts.ExecutionReadiness `json:"readiness"`
		Authority contracts.AuthorityResult    `json:"authority"`
	}{staged.Agent, staged.Action, staged.Verdict, staged.Readiness, staged.Authority}

	data, _ := json.Marshal(hashable)
	canonical, err := jcs.Transform(data)
	if err != nil {
		canonical = data
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:])
}
