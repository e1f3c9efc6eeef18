package ledger

import (
	"fmt"
	"slices"
	"sync"

	"github.com/anoideaopen/feeledger/core/types"
	"github.com/google/uuid"
)

// Registry maps every registered currency to its single fee policy.
// Registrations are permanent.
type Registry struct {
	mu sync.RWMutex

	byCurrency map[types.Currency]*Policy
	byID       map[PolicyID]*Policy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byCurrency: make(map[types.Currency]*Policy),
		byID:       make(map[PolicyID]*Policy),
	}
}

// Register creates an empty policy for the currency and the capability that
// administers it.
func (r *Registry) Register(currency types.Currency) (*Policy, *AdminCap, error) {
	if err := currency.Validate(); err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCurrency[currency]; ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, currency)
	}

	id := PolicyID(uuid.New())
	p := newPolicy(id, currency)
	r.byCurrency[currency] = p
	r.byID[id] = p

	return p, &AdminCap{policy: id}, nil
}

// Lookup returns the policy identity of the currency.
func (r *Registry) Lookup(currency types.Currency) (PolicyID, error) {
	p, err := r.PolicyFor(currency)
	if err != nil {
		return PolicyID{}, err
	}
	return p.id, nil
}

// PolicyFor returns the policy of the currency.
func (r *Registry) PolicyFor(currency types.Currency) (*Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byCurrency[currency]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, currency)
	}
	return p, nil
}

// Policy returns the policy with the identity.
func (r *Registry) Policy(id PolicyID) (*Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: policy %s", ErrNotRegistered, id)
	}
	return p, nil
}

// Currencies returns the registered currencies in lexical order.
func (r *Registry) Currencies() []types.Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Currency, 0, len(r.byCurrency))
	for c := range r.byCurrency {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
