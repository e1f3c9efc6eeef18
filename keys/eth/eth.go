// Package eth wraps the go-ethereum secp256k1 primitives used for owner keys.
package eth

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = 64

// NewKey generates a secp256k1 key.
func NewKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// PublicKeyBytes returns the uncompressed public key, 65 bytes with the 0x04 prefix.
func PublicKeyBytes(publicKey *ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(publicKey)
}

func PrivateKeyBytes(privateKey *ecdsa.PrivateKey) []byte {
	return crypto.FromECDSA(privateKey)
}

func PrivateKeyFromBytes(raw []byte) (*ecdsa.PrivateKey, error) {
	return crypto.ToECDSA(raw)
}

// Hash returns the Ethereum signed-message hash of message.
func Hash(message []byte) []byte {
	return accounts.TextHash(message)
}

// Sign signs digest and returns a 65 byte signature with an Ethereum style
// recovery byte (27 or 28).
func Sign(digest []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	const recoveryBits = 27

	signature, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return nil, err
	}
	signature[signatureLength] += recoveryBits
	return signature, nil
}

// Verify checks signature over digest. The recovery byte is ignored.
func Verify(publicKey, digest, signature []byte) bool {
	if len(signature) > signatureLength {
		signature = signature[:signatureLength]
	}
	return crypto.VerifySignature(publicKey, digest, signature)
}
