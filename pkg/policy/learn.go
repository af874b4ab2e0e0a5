package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/warden-systems/warden/pkg/contracts"
)

const (
	defaultReviewIntervalDays = 90
	defaultExpiryDays         = 180
)

// Learner materializes learned policies from confirmed proposals. A failed
// validation is an expected non-result, not an error: the learner returns a
// nil policy together with the full validation report, and never retries or
// partially applies.
type Learner struct {
	clock func() time.Time
}

// NewLearner creates a learner.
func NewLearner() *Learner {
	return &Learner{clock: time.Now}
}

// WithClock overrides the clock for deterministic testing.
func (l *Learner) WithClock(clock func() time.Time) *Learner {
	l.clock = clock
	return l
}

// Learn runs the three validators over the proposal and, when all pass,
// returns an immutable LearnedPolicy carrying its mandatory lifecycle.
// Proposals of change type NONE never learn: there is no constraint to
// record.
func (l *Learner) Learn(p *contracts.PolicyChangeProposal) (*contracts.LearnedPolicy, contracts.ValidationReport) {
	report := Validate(p)
	if !report.AllPassed() {
		return nil, report
	}
	if p.ChangeType == contracts.ChangeNone {
		return nil, report
	}

	now := l.clock()
	return &contracts.LearnedPolicy{
		ID:             policyID(p.ID),
		SourceProposal: p.ID,
		ChangeType:     p.ChangeType,
		Constraint:     p.After.Description,
		AffectedLayers: report.LayerBoundary.AffectedLayers,
		Validation:     report,
		Lifecycle: contracts.PolicyLifecycle{
			CreatedAt:          now,
			ReviewIntervalDays: defaultReviewIntervalDays,
			NextReviewDate:     now.AddDate(0, 0, defaultReviewIntervalDays),
			ExpiresAt:          now.AddDate(0, 0, defaultExpiryDays),
			LastReviewedAt:     nil,
			Status:             contracts.LifecycleActive,
		},
	}, report
}

// policyID derives a deterministic id from the source proposal, so learning
// the same confirmed proposal twice cannot mint two distinct policies.
func policyID(proposalID string) string {
	sum := sha256.Sum256([]byte("learned-policy:" + proposalID))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(hex.EncodeToString(sum[:]))).String()
}
