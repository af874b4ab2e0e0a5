package policy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warden-systems/warden/pkg/contracts"
)

// ErrPolicyNotFound reports an unknown policy id.
var ErrPolicyNotFound = errors.New("policy not found")

// Store is the append-only log of learned policies. Construct one at
// process start and inject it; there is no hidden singleton.
type Store interface {
	Append(p *contracts.LearnedPolicy) error
	List() ([]*contracts.LearnedPolicy, error)
	Get(id string) (*contracts.LearnedPolicy, error)
	Clear() error
}

// MemoryStore is the in-process Store: a slice scanned linearly by id, in
// append order.
type MemoryStore struct {
	mu       sync.Mutex
	policies []*contracts.LearnedPolicy
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds a learned policy to the log.
func (s *MemoryStore) Append(p *contracts.LearnedPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, p)
	return nil
}

// List returns every stored policy in append order.
func (s *MemoryStore) List() ([]*contracts.LearnedPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*contracts.LearnedPolicy, len(s.policies))
	copy(out, s.policies)
	return out, nil
}

// Get scans for a policy by id.
func (s *MemoryStore) Get(id string) (*contracts.LearnedPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPolicyNotFound, id)
}

// Clear resets the log.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = nil
	return nil
}
