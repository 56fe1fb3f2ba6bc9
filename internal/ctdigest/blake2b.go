// Package ctdigest provides an alternate merkle.Digest implementation
// using BLAKE2b instead of SHA-256, for deployments that prefer
// BLAKE2b's speed on modern CPUs. It satisfies the same domain
// separation rules the core's SHA256Digest does.
package ctdigest

import (
	"golang.org/x/crypto/blake2b"

	"github.com/kindlyrobotics/ctlog/merkle"
)

const (
	leafPrefix  = 0x00
	innerPrefix = 0x01
)

// Blake2bDigest implements merkle.Digest with 256-bit BLAKE2b.
type Blake2bDigest struct{}

// Size implements merkle.Digest.
func (Blake2bDigest) Size() int { return blake2b.Size256 }

// Empty implements merkle.Digest.
func (Blake2bDigest) Empty() merkle.Hash {
	h := blake2b.Sum256(nil)
	return h[:]
}

// Element implements merkle.Digest.
func (Blake2bDigest) Element(d merkle.Digestible) merkle.Hash {
	h := blake2b.Sum256(d.HashBytes())
	return h[:]
}

// Leaf implements merkle.Digest.
func (Blake2bDigest) Leaf(elementHash merkle.Hash) merkle.Hash {
	hasher, _ := blake2b.New256(nil)
	hasher.Write([]byte{leafPrefix})
	hasher.Write(elementHash)
	return hasher.Sum(nil)
}

// Inner implements merkle.Digest.
func (Blake2bDigest) Inner(left, right merkle.Hash) merkle.Hash {
	hasher, _ := blake2b.New256(nil)
	hasher.Write([]byte{innerPrefix})
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}
