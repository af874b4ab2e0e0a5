package policy

import (
	"errors"
	"fmt"
	"time"

	"github.com/warden-systems/warden/pkg/contracts"
)

// ErrPolicyExpired rejects renewal of a policy that has passed its expiry
// or was explicitly let expire.
var ErrPolicyExpired = errors.New("policy is expired and cannot be renewed")

// LifecycleManager owns the only mutations a learned policy ever sees: its
// lifecycle block. Expiry and review checks are pure wall-clock comparisons.
type LifecycleManager struct {
	clock func() time.Time
}

// NewLifecycleManager creates a lifecycle manager.
func NewLifecycleManager() *LifecycleManager {
	return &LifecycleManager{clock: time.Now}
}

// WithClock overrides the clock for deterministic testing.
func (m *LifecycleManager) WithClock(clock func() time.Time) *LifecycleManager {
	m.clock = clock
	return m
}

// IsExpired reports whether the policy's expiry timestamp has passed.
func (m *LifecycleManager) IsExpired(p *contracts.LearnedPolicy) bool {
	return m.clock().After(p.Lifecycle.ExpiresAt)
}

// NeedsReview reports whether the policy's next review date has passed.
func (m *LifecycleManager) NeedsReview(p *contracts.LearnedPolicy) bool {
	return m.clock().After(p.Lifecycle.NextReviewDate)
}

// Renew records a human review: it resets the review and expiry windows
// from now and restores ACTIVE status. Renewal is invalid once the policy
// is expired, whether by the clock or by explicit status.
func (m *LifecycleManager) Renew(p *contracts.LearnedPolicy) error {
	if p.Lifecycle.Status == contracts.LifecycleExpired {
		return fmt.Errorf("%w: status is EXPIRED", ErrPolicyExpired)
	}
	if m.IsExpired(p) {
		return fmt.Errorf("%w: expired at %s", ErrPolicyExpired, p.Lifecycle.ExpiresAt.Format(time.RFC3339))
	}

	now := m.clock()
	interval := p.Lifecycle.ReviewIntervalDays
	p.Lifecycle.LastReviewedAt = &now
	p.Lifecycle.NextReviewDate = now.AddDate(0, 0, interval)
	p.Lifecycle.ExpiresAt = now.AddDate(0, 0, 2*interval)
	p.Lifecycle.Status = contracts.LifecycleActive
	return nil
}

// LetExpire is the explicit human action that forces EXPIRED status,
// independent of the time check. It always succeeds.
func (m *LifecycleManager) LetExpire(p *contracts.LearnedPolicy) {
	p.Lifecycle.Status = contracts.LifecycleExpired
}

// MarkUnderReview flags a policy whose review date has passed without
// touching its expiry.
func (m *LifecycleManager) MarkUnderReview(p *contracts.LearnedPolicy) {
	if p.Lifecycle.Status == contracts.LifecycleActive && m.NeedsReview(p) {
		p.Lifecycle.Status = contracts.LifecycleUnderReview
	}
}
