package balance

// Scope tags balances produced by one ledger sequence. Revoking the scope
// makes every tagged balance, and every balance split from one, worthless.
type Scope struct {
	revoked bool
}

// NewScope creates an active scope.
func NewScope() *Scope {
	return &Scope{}
}

// Bind tags b with the scope. Balances split from b inherit it.
func (s *Scope) Bind(b *Balance) {
	if b != nil {
		b.scope = s
	}
}

// Revoke invalidates the balances tagged with the scope.
func (s *Scope) Revoke() {
	s.revoked = true
}

// Revoked reports whether Revoke was called.
func (s *Scope) Revoked() bool {
	return s.revoked
}
