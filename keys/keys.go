// Package keys generates owner keys, signs messages with them and derives
// ledger addresses from public keys.
package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/anoideaopen/feeledger/core/types"
	"github.com/anoideaopen/feeledger/keys/eth"
	"github.com/anoideaopen/feeledger/keys/gost"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ddulesov/gogost/gost3410"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"
)

// KeyType is a signature scheme.
type KeyType uint8

const (
	KeyTypeEd25519 KeyType = iota
	KeyTypeSecp256k1
	KeyTypeGOST
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeEd25519:
		return "ed25519"
	case KeyTypeSecp256k1:
		return "secp256k1"
	case KeyTypeGOST:
		return "gost"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

const (
	KeyLengthEd25519   = 32
	KeyLengthSecp256k1 = 65
	KeyLengthGOST      = 64
)

const prefixUncompressedSecp256k1Key = 0x04

var (
	ErrUnknownKeyType   = errors.New("unknown key type")
	ErrSignatureInvalid = errors.New("signature rejected")
)

// Keys is a key pair of one of the supported schemes.
type Keys struct {
	KeyType             KeyType
	PublicKeyEd25519    ed25519.PublicKey
	PrivateKeyEd25519   ed25519.PrivateKey
	PrivateKeySecp256k1 *ecdsa.PrivateKey
	PrivateKeyGOST      *gost3410.PrivateKey
	PublicKeyBytes      []byte
}

// Generate creates a key pair of the given type.
func Generate(keyType KeyType) (*Keys, error) {
	k := &Keys{KeyType: keyType}
	switch keyType {
	case KeyTypeEd25519:
		pKey, sKey, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, err
		}
		k.PublicKeyEd25519 = pKey
		k.PrivateKeyEd25519 = sKey
		k.PublicKeyBytes = pKey
	case KeyTypeSecp256k1:
		sKey, err := eth.NewKey()
		if err != nil {
			return nil, err
		}
		k.PrivateKeySecp256k1 = sKey
		k.PublicKeyBytes = eth.PublicKeyBytes(&sKey.PublicKey)
	case KeyTypeGOST:
		sKey, err := gost.NewKey()
		if err != nil {
			return nil, err
		}
		pKey, err := sKey.PublicKey()
		if err != nil {
			return nil, err
		}
		k.PrivateKeyGOST = sKey
		k.PublicKeyBytes = pKey.Raw()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyType, keyType)
	}
	return k, nil
}

// Ed25519FromBase58Check restores an ed25519 key pair from its base58check
// encoded private key.
func Ed25519FromBase58Check(encoded string) (*Keys, error) {
	decoded, ver, err := base58.CheckDecode(encoded)
	if err != nil {
		return nil, err
	}
	sKey := ed25519.PrivateKey(append([]byte{ver}, decoded...))
	if len(sKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(sKey))
	}
	pKey, ok := sKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("error converting private key to public")
	}

	return &Keys{
		KeyType:           KeyTypeEd25519,
		PublicKeyEd25519:  pKey,
		PrivateKeyEd25519: sKey,
		PublicKeyBytes:    pKey,
	}, nil
}

// Address returns the ledger address of the key pair.
func (k *Keys) Address() types.Address {
	return AddressFromPublicKey(k.PublicKeyBytes)
}

// AddressFromPublicKey derives the ledger address of a public key: the
// sha3-256 hash of its bytes.
func AddressFromPublicKey(publicKey []byte) types.Address {
	return sha3.Sum256(publicKey)
}

// ValidateKeyLength reports whether key has the length of a supported
// public key.
func ValidateKeyLength(key []byte) bool {
	switch len(key) {
	case KeyLengthEd25519, KeyLengthGOST:
		return true
	case KeyLengthSecp256k1:
		return key[0] == prefixUncompressedSecp256k1Key
	}
	return false
}

// Sign signs message with the key pair and returns the digest that was
// signed together with the signature.
func Sign(k *Keys, message []byte) ([]byte, []byte, error) {
	digest, err := Digest(k.KeyType, message)
	if err != nil {
		return nil, nil, err
	}

	var signature []byte
	switch k.KeyType {
	case KeyTypeEd25519:
		signature = ed25519.Sign(k.PrivateKeyEd25519, digest)
	case KeyTypeSecp256k1:
		signature, err = eth.Sign(digest, k.PrivateKeySecp256k1)
	case KeyTypeGOST:
		signature, err = gost.Sign(k.PrivateKeyGOST, digest)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("sign with %s key: %w", k.KeyType, err)
	}
	return digest, signature, nil
}

// Verify checks signature over message against a public key of the type.
func Verify(keyType KeyType, publicKey, message, signature []byte) error {
	digest, err := Digest(keyType, message)
	if err != nil {
		return err
	}

	var valid bool
	switch keyType {
	case KeyTypeEd25519:
		valid = len(publicKey) == ed25519.PublicKeySize && ed25519.Verify(publicKey, digest, signature)
	case KeyTypeSecp256k1:
		valid = eth.Verify(publicKey, digest, signature)
	case KeyTypeGOST:
		if valid, err = gost.Verify(publicKey, digest, signature); err != nil {
			return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
	}
	if !valid {
		return fmt.Errorf("%w: %s", ErrSignatureInvalid, keyType)
	}
	return nil
}

// Digest returns the digest a key of the type signs for message.
func Digest(keyType KeyType, message []byte) ([]byte, error) {
	switch keyType {
	case KeyTypeEd25519:
		d := sha3.Sum256(message)
		return d[:], nil
	case KeyTypeSecp256k1:
		d := sha3.Sum256(message)
		return eth.Hash(d[:]), nil
	case KeyTypeGOST:
		d := gost.Sum256(message)
		return d[:], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyType, keyType)
	}
}
