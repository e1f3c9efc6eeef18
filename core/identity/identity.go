// Package identity derives account identities from (currency, owner) pairs
// and records which of them have been claimed.
package identity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/anoideaopen/feeledger/core/types"
	"golang.org/x/crypto/sha3"
)

const domainSeparator = "feeledger/account"

var ErrAlreadyClaimed = errors.New("identity already claimed")

// ID is the identity of an account. IDs share the address space with owners,
// so an account can own another account.
type ID types.Address

// Derive returns the identity of the account of owner in currency. It is a
// pure function of its inputs.
func Derive(currency types.Currency, owner types.Address) ID {
	h := sha3.New256()
	_, _ = h.Write([]byte(domainSeparator))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(currency))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(owner.Bytes())

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// FromBase58Check parses the textual form of an ID.
func FromBase58Check(in string) (ID, error) {
	addr, err := types.AddrFromBase58Check(in)
	if err != nil {
		return ID{}, fmt.Errorf("parsing identity: %w", err)
	}
	return ID(addr), nil
}

// Address returns the identity as an address.
func (id ID) Address() types.Address {
	return types.Address(id)
}

// IsZero reports whether the identity is unset.
func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) String() string {
	return id.Address().String()
}

// MarshalJSON marshals the identity as its base58check string.
func (id ID) MarshalJSON() ([]byte, error) {
	return id.Address().MarshalJSON()
}

// Claims is the one-shot claim table of identities.
type Claims struct {
	mu      sync.RWMutex
	claimed map[ID]struct{}
}

// NewClaims creates an empty claim table.
func NewClaims() *Claims {
	return &Claims{claimed: make(map[ID]struct{})}
}

// Claim derives the identity of (currency, owner) and marks it claimed. A
// second claim of the same pair fails with ErrAlreadyClaimed.
func (c *Claims) Claim(currency types.Currency, owner types.Address) (ID, error) {
	id := Derive(currency, owner)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.claimed[id]; ok {
		return id, fmt.Errorf("%w: %s", ErrAlreadyClaimed, id)
	}
	c.claimed[id] = struct{}{}

	return id, nil
}

// Claimed reports whether id has been claimed.
func (c *Claims) Claimed(id ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.claimed[id]
	return ok
}

// Release forgets a claim. Used when the sequence that made the claim is
// rolled back.
func (c *Claims) Release(id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.claimed, id)
}
