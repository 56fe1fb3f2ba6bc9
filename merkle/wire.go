package merkle

import (
	"encoding/binary"
	"errors"
)

var (
	errShortBuffer  = errors.New("merkle: buffer too short")
	errTrailingData = errors.New("merkle: trailing bytes after decode")
)

// MarshalBinary encodes a TreeHead as (u64 size, fixed-length root
// bytes).
func (h TreeHead) MarshalBinary() ([]byte, error) {
	out := make([]byte, 8+len(h.Root))
	binary.BigEndian.PutUint64(out, h.Size)
	copy(out[8:], h.Root)
	return out, nil
}

// UnmarshalTreeHead decodes a TreeHead encoded by MarshalBinary. hashSize
// must match the Digest that produced it, since the root's length is not
// self-describing in the wire form.
func UnmarshalTreeHead(data []byte, hashSize int) (TreeHead, []byte, error) {
	if len(data) < 8+hashSize {
		return TreeHead{}, nil, errShortBuffer
	}
	size := binary.BigEndian.Uint64(data)
	root := make(Hash, hashSize)
	copy(root, data[8:8+hashSize])
	return TreeHead{Size: size, Root: root}, data[8+hashSize:], nil
}

// MarshalBinary encodes a SignedTreeHead as (TreeHead, length-prefixed
// signature bytes).
func (s SignedTreeHead) MarshalBinary() ([]byte, error) {
	thBytes, err := s.th.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(thBytes)+4+len(s.sig))
	copy(out, thBytes)
	binary.BigEndian.PutUint32(out[len(thBytes):], uint32(len(s.sig)))
	copy(out[len(thBytes)+4:], s.sig)
	return out, nil
}

// UnmarshalSignedTreeHead decodes a SignedTreeHead encoded by
// MarshalBinary.
func UnmarshalSignedTreeHead(data []byte, hashSize int) (SignedTreeHead, error) {
	th, rest, err := UnmarshalTreeHead(data, hashSize)
	if err != nil {
		return SignedTreeHead{}, err
	}
	if len(rest) < 4 {
		return SignedTreeHead{}, errShortBuffer
	}
	sigLen := binary.BigEndian.Uint32(rest)
	rest = rest[4:]
	if uint64(len(rest)) < uint64(sigLen) {
		return SignedTreeHead{}, errShortBuffer
	}
	sig := make([]byte, sigLen)
	copy(sig, rest[:sigLen])
	if len(rest) != int(sigLen) {
		return SignedTreeHead{}, errTrailingData
	}
	return SignedTreeHead{th: th, sig: sig}, nil
}

// MarshalBinary encodes a PubKey as its raw bytes (32 for Ed25519).
func (pk PubKey) MarshalBinary() ([]byte, error) {
	out := make([]byte, len(pk))
	copy(out, pk)
	return out, nil
}

// treeSnapshot is the full internal state needed to reconstruct a
// MerkleTree exactly: the logical size, the backing buffer (which
// already encodes every committed inner/leaf hash), and the leaf-index
// map in insertion order (its iteration order is unspecified in Go, so
// it is carried explicitly rather than re-derived from buf).
type treeSnapshot struct {
	size   uint64
	digest Digest
	buf    []Hash
	leaves []Hash // leaves[i] is the element hash inserted at index i
}

// snapshot captures enough state to reconstruct t exactly via
// restoreTree, without exposing the buffer layout publicly.
func (t *MerkleTree) snapshot() treeSnapshot {
	leaves := make([]Hash, t.Len())
	for k, i := range t.leafIndex {
		leaves[i] = Hash(k)
	}
	bufCopy := make([]Hash, len(t.buf))
	for i, h := range t.buf {
		bufCopy[i] = h.Clone()
	}
	return treeSnapshot{size: uint64(t.Len()), digest: t.digest, buf: bufCopy, leaves: leaves}
}

// restoreTree rebuilds a tree from a snapshot taken by (*MerkleTree).snapshot,
// producing a tree indistinguishable from the original for every
// subsequent operation: same head, same inclusion and consistency
// proofs, same dedup behavior.
func restoreTree(s treeSnapshot) *MerkleTree {
	t := &MerkleTree{
		digest:    s.digest,
		leafIndex: make(map[string]int, len(s.leaves)),
		buf:       s.buf,
	}
	for i, h := range s.leaves {
		t.leafIndex[string(h)] = i
	}
	return t
}
