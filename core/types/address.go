package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressLength is expected bytes len for business entity Address
const AddressLength = 32

var ErrAddressLength = errors.New("wrong address length")

// Address identifies an owner, a fee recipient or any other on-ledger object
// (account identities are addresses too, see identity.ID).
type Address [AddressLength]byte

// AddrFromBytes creates address from bytes
func AddrFromBytes(in []byte) (Address, error) {
	var addr Address
	if !IsValidAddressLen(in) {
		return addr, fmt.Errorf("%w: actual %d but expected %d", ErrAddressLength, len(in), AddressLength)
	}
	copy(addr[:], in)
	return addr, nil
}

// AddrFromBase58Check creates address from base58 string
func AddrFromBase58Check(in string) (Address, error) {
	value, ver, err := base58.CheckDecode(in)
	if err != nil {
		return Address{}, fmt.Errorf("decoding base58 '%s' failed, err: %w", in, err)
	}

	return AddrFromBytes(append([]byte{ver}, value...))
}

// Equal compares two addresses
func (a Address) Equal(b Address) bool {
	return bytes.Equal(a[:], b[:])
}

// IsZero reports whether the address is unset
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns address bytes
func (a Address) Bytes() []byte {
	return a[:]
}

// String returns address string
func (a Address) String() string {
	return base58.CheckEncode(a[1:], a[0])
}

// MarshalJSON marshals address to json
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON unmarshals address from json
func (a *Address) UnmarshalJSON(data []byte) error {
	var tmp string
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	addr, err := AddrFromBase58Check(tmp)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Sender is the authenticated caller of an operation.
type Sender struct {
	addr Address
}

// NewSenderFromAddr creates sender from address
func NewSenderFromAddr(addr Address) *Sender {
	return &Sender{addr: addr}
}

// Address returns address
func (s *Sender) Address() Address {
	return s.addr
}

// Equal compares sender with the address
func (s *Sender) Equal(addr Address) bool {
	return s.addr.Equal(addr)
}

// IsValidAddressLen checks if address length is valid
func IsValidAddressLen(val []byte) bool {
	return len(val) == AddressLength
}
