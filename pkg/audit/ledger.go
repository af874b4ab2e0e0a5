// Package audit records receipts for every governance event the engine
// produces. Every refusal and every state transition is receipted, no
// silent drops.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// EventKind categorizes a governance event.
type EventKind string

const (
	EventVerdictDerived   EventKind = "VERDICT_DERIVED"
	EventEthicsBlocked    EventKind = "ETHICS_BLOCKED"
	EventActionStaged     EventKind = "ACTION_STAGED"
	EventActionApproved   EventKind = "ACTION_APPROVED"
	EventActionRejected   EventKind = "ACTION_REJECTED"
	EventStagingRefused   EventKind = "STAGING_REFUSED"
	EventIntentCreated    EventKind = "INTENT_CREATED"
	EventProposalDerived  EventKind = "PROPOSAL_DERIVED"
	EventProposalResolved EventKind = "PROPOSAL_RESOLVED"
	EventPolicyLearned    EventKind = "POLICY_LEARNED"
	EventLearningSkipped  EventKind = "LEARNING_SKIPPED"
	EventPolicyRenewed    EventKind = "POLICY_RENEWED"
	EventPolicyExpired    EventKind = "POLICY_EXPIRED"
	EventOverrideCreated  EventKind = "OVERRIDE_CREATED"
)

// Receipt is the proof artifact recorded for one governance event.
type Receipt struct {
	ReceiptID   string    `json:"receipt_id"`
	RecordedAt  time.Time `json:"recorded_at"`
	AgentID     string    `json:"agent_id,omitempty"`
	SubjectID   string    `json:"subject_id,omitempty"`
	Kind        EventKind `json:"kind"`
	Details     string    `json:"details"`
	ContentHash string    `json:"content_hash"`
}

// Ledger records governance receipts in order.
type Ledger struct {
	mu       sync.Mutex
	receipts []Receipt
	seq      int64
	clock    func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		receipts: make([]Receipt, 0),
		clock:    time.Now,
	}
}

// WithClock overrides clock for testing.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// Record appends a receipt for a governance event and returns it.
func (l *Ledger) Record(kind EventKind, agentID, subjectID, details string) *Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	receiptID := fmt.Sprintf("audit-%d", l.seq)

	hashInput := fmt.Sprintf("%s:%s:%s:%s:%s", receiptID, kind, agentID, subjectID, details)
	h := sha256.Sum256([]byte(hashInput))

	receipt := Receipt{
		ReceiptID:   receiptID,
		RecordedAt:  l.clock(),
		AgentID:     agentID,
		SubjectID:   subjectID,
		Kind:        kind,
		Details:     details,
		ContentHash: "sha256:" + hex.EncodeToString(h[:]),
	}

	l.receipts = append(l.receipts, receipt)
	return &receipt
}

// Get retrieves a receipt by id.
func (l *Ledger) Get(receiptID string) (*Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.receipts {
		if r.ReceiptID == receiptID {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("audit receipt %q not found", receiptID)
}

// QueryByKind returns all receipts of one kind, in record order.
func (l *Ledger) QueryByKind(kind EventKind) []Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []Receipt
	for _, r := range l.receipts {
		if r.Kind == kind {
			result = append(result, r)
		}
	}
	return result
}

// QueryByAgent returns all receipts touching one agent, in record order.
func (l *Ledger) QueryByAgent(agentID string) []Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []Receipt
	for _, r := range l.receipts {
		if r.AgentID == agentID {
			result = append(result, r)
		}
	}
	return result
}

// Length returns the number of receipts recorded.
func (l *Ledger) Length() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.receipts)
}
