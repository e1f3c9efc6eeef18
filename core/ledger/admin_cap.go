package ledger

import "github.com/google/uuid"

// PolicyID identifies a fee policy.
type PolicyID uuid.UUID

func (id PolicyID) String() string {
	return uuid.UUID(id).String()
}

// AdminCap authorises fee administration of exactly one policy. It is issued
// once, when the currency is registered.
type AdminCap struct {
	policy PolicyID
}

// PolicyID returns the policy the capability is bound to.
func (c *AdminCap) PolicyID() PolicyID {
	return c.policy
}

func (c *AdminCap) boundTo(p *Policy) bool {
	return c != nil && p != nil && c.policy == p.id
}
