// Package gost implements GOST R 34.10-2012 owner keys on the
// id-GostR3410-2001-CryptoPro-XchA-ParamSet curve.
package gost

import (
	"crypto/rand"

	"github.com/ddulesov/gogost/gost3410"
	"github.com/ddulesov/gogost/gost34112012256"
)

func curve() *gost3410.Curve {
	return gost3410.CurveIdGostR34102001CryptoProXchAParamSet()
}

// NewKey generates a private key.
func NewKey() (*gost3410.PrivateKey, error) {
	return gost3410.GenPrivateKey(curve(), gost3410.Mode2001, rand.Reader)
}

// Sum256 returns the GOST R 34.11-2012 256 bit digest of data.
func Sum256(data []byte) (digest [32]byte) {
	hasher := gost34112012256.New()
	if _, err := hasher.Write(data); err == nil {
		copy(digest[:], hasher.Sum(nil))
	}
	return
}

// Sign signs digest. Digest and signature are byte-reversed to stay
// compatible with CryptoPro HSM signatures.
func Sign(privateKey *gost3410.PrivateKey, digest []byte) ([]byte, error) {
	signature, err := privateKey.SignDigest(reverseBytes(digest), rand.Reader)
	if err != nil {
		return nil, err
	}
	return reverseBytes(signature), nil
}

// Verify checks a signature produced by Sign.
func Verify(publicKey, digest, signature []byte) (bool, error) {
	pk, err := gost3410.NewPublicKey(curve(), gost3410.Mode2001, publicKey)
	if err != nil {
		return false, err
	}
	return pk.VerifyDigest(reverseBytes(digest), reverseBytes(signature))
}

func reverseBytes(in []byte) []byte {
	n := len(in)
	reversed := make([]byte, n)
	for i, b := range in {
		reversed[n-i-1] = b
	}
	return reversed
}
