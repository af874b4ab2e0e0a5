package policy

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warden-systems/warden/pkg/contracts"
)

const maxOverrideDays = 30

var (
	// ErrReasonTooShort rejects override reasons under 10 characters.
	ErrReasonTooShort = errors.New("override reason must be at least 10 characters")

	// ErrInvalidExpiry rejects override expiry outside (0, 30] days.
	ErrInvalidExpiry = errors.New("override expiry must be between 1 and 30 days")
)

// OverrideManager records time-bounded shadows over learned policies. An
// override never edits the target policy; only the effective status
// reported by ActiveStatus changes, and only while an override's computed
// activity window is open.
type OverrideManager struct {
	mu        sync.Mutex
	overrides map[string][]contracts.PolicyOverride
	clock     func() time.Time
}

// NewOverrideManager creates an override manager.
func NewOverrideManager() *OverrideManager {
	return &OverrideManager{
		overrides: make(map[string][]contracts.PolicyOverride),
		clock:     time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (m *OverrideManager) WithClock(clock func() time.Time) *OverrideManager {
	m.clock = clock
	return m
}

// Create records an override against a policy id. The reason must carry at
// least 10 characters after trimming and the expiry must fall in (0, 30]
// days from creation.
func (m *OverrideManager) Create(targetPolicyID string, scope contracts.OverrideScope, reason, createdBy string, expiryDays int) (*contracts.PolicyOverride, error) {
	if len(strings.TrimSpace(reason)) < minJustificationLen {
		return nil, fmt.Errorf("%w: got %d", ErrReasonTooShort, len(strings.TrimSpace(reason)))
	}
	if expiryDays <= 0 || expiryDays > maxOverrideDays {
		return nil, fmt.Errorf("%w: got %d days", ErrInvalidExpiry, expiryDays)
	}

	now := m.clock()
	override := contracts.PolicyOverride{
		ID:             uuid.New().String(),
		TargetPolicyID: targetPolicyID,
		Scope:          scope,
		Reason:         strings.TrimSpace(reason),
		CreatedBy:      createdBy,
		CreatedAt:      now,
		ExpiresAt:      now.AddDate(0, 0, expiryDays),
	}

	m.mu.Lock()
	m.overrides[targetPolicyID] = append(m.overrides[targetPolicyID], override)
	m.mu.Unlock()

	return &override, nil
}

// IsActive recomputes an override's activity from the current clock. The
// record stores no active flag; this computation is the only truth.
func (m *OverrideManager) IsActive(o contracts.PolicyOverride) bool {
	now := m.clock()
	return !now.Before(o.CreatedAt) && now.Before(o.ExpiresAt)
}

// ListFor returns every override recorded against a policy id, active or
// not.
func (m *OverrideManager) ListFor(targetPolicyID string) []contracts.PolicyOverride {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]contracts.PolicyOverride, len(m.overrides[targetPolicyID]))
	copy(out, m.overrides[targetPolicyID])
	return out
}

// ActiveStatus returns the policy's effective lifecycle status: OVERRIDDEN
// while at least one override is currently active, the policy's own stored
// status otherwise. It reverts automatically once every override expires.
func (m *OverrideManager) ActiveStatus(p *contracts.LearnedPolicy) contracts.LifecycleStatus {
	for _, o := range m.ListFor(p.ID) {
		if m.IsActive(o) {
			return contracts.LifecycleOverridden
		}
	}
	return p.Lifecycle.Status
}
