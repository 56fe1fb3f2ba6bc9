// Package ctpq is an alternate tree-head signer using Dilithium3, a
// post-quantum signature scheme, instead of the core merkle package's
// Ed25519. It deliberately sits outside the merkle package: the core
// stays fixed to its Ed25519 KeyPair. Neither ctlog nor ctlogd uses
// this signer; both sign tree heads only with a merkle.KeyPair.
package ctpq

import (
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/kindlyrobotics/ctlog/merkle"
)

// Signer wraps a Dilithium3 key pair.
type Signer struct {
	pub  *mode3.PublicKey
	priv *mode3.PrivateKey
}

// NewSigner generates a fresh Dilithium3 key pair.
func NewSigner() (*Signer, error) {
	pub, priv, err := mode3.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ctpq: generate key: %w", err)
	}
	return &Signer{pub: pub, priv: priv}, nil
}

// PublicKeyBytes returns the packed Dilithium3 public key.
func (s *Signer) PublicKeyBytes() []byte {
	return s.pub.Bytes()
}

// SignTreeHead signs a tree head's root hash, mirroring the core
// package's root-only signing contract but with a Dilithium3 signature
// in place of Ed25519.
func (s *Signer) SignTreeHead(th merkle.TreeHead) []byte {
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, th.Root, sig)
	return sig
}

// VerifyTreeHead verifies a Dilithium3 signature over th.Root under
// the packed public key pubBytes. It never panics on malformed input:
// a wrong-sized key simply fails to unpack and verification reports
// false.
func VerifyTreeHead(th merkle.TreeHead, sig, pubBytes []byte) bool {
	if len(pubBytes) != mode3.PublicKeySize {
		return false
	}
	var pub mode3.PublicKey
	var pubArr [mode3.PublicKeySize]byte
	copy(pubArr[:], pubBytes)
	pub.Unpack(&pubArr)
	return mode3.Verify(&pub, th.Root, sig)
}
