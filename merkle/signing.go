package merkle

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
)

// KeyPair is an opaque Ed25519 key pair derived from a PKCS#8 blob.
// Generating, parsing, and encoding one report failures as a
// CryptoError.
type KeyPair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewKeyPair generates a fresh Ed25519 key pair.
func NewKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, &CryptoError{Op: "generate key", Err: err}
	}
	return &KeyPair{priv: priv, pub: pub}, nil
}

// NewKeyPairFromPKCS8 parses a PKCS#8-encoded Ed25519 private key.
//
// Some libraries emit a fixed 85-byte PKCS#8 v2 encoding that embeds
// the public key alongside the seed; Go's crypto/x509 only emits and
// parses the variable-length, public-key-less PKCS#8 v1 form for
// Ed25519, so a fixed byte length isn't a portable invariant here —
// only "is it a valid PKCS#8 Ed25519 private key" is checked.
func NewKeyPairFromPKCS8(der []byte) (*KeyPair, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, &CryptoError{Op: "parse pkcs8", Err: err}
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, &CryptoError{Op: "parse pkcs8", Err: errUnsupportedKeyType}
	}
	return &KeyPair{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// MarshalPKCS8 encodes the private key as a PKCS#8 DER blob.
func (kp *KeyPair) MarshalPKCS8() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(kp.priv)
	if err != nil {
		return nil, &CryptoError{Op: "marshal pkcs8", Err: err}
	}
	return der, nil
}

// PubKey returns the 32-byte Ed25519 public key.
func (kp *KeyPair) PubKey() PubKey {
	out := make(PubKey, len(kp.pub))
	copy(out, kp.pub)
	return out
}

func (kp *KeyPair) sign(data []byte) []byte {
	return ed25519.Sign(kp.priv, data)
}

// PubKey is a 32-byte Ed25519 public key.
type PubKey []byte

// Verify reports whether sig is a valid Ed25519 signature over data
// under pk. It never panics on malformed input: a wrong-sized key
// simply fails to verify.
func (pk PubKey) Verify(data, sig []byte) bool {
	if len(pk) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk), data, sig)
}

// SignedTreeHead binds a TreeHead to a signature over its root hash
// alone; the size travels alongside in cleartext and is defended by
// the root, since any size mismatch changes the MTH.
type SignedTreeHead struct {
	th  TreeHead
	sig []byte
}

func newSignedTreeHead(kp *KeyPair, th TreeHead) SignedTreeHead {
	return SignedTreeHead{th: th, sig: kp.sign(th.Root)}
}

// TreeHead returns the wrapped (size, root) snapshot.
func (s SignedTreeHead) TreeHead() TreeHead { return s.th }

// Size returns the wrapped tree head's size.
func (s SignedTreeHead) Size() uint64 { return s.th.Size }

// RootHash returns the wrapped tree head's root.
func (s SignedTreeHead) RootHash() Hash { return s.th.Root }

// Signature returns the raw signature bytes.
func (s SignedTreeHead) Signature() []byte {
	out := make([]byte, len(s.sig))
	copy(out, s.sig)
	return out
}

// Verify checks the signature against pk.
func (s SignedTreeHead) Verify(pk PubKey) bool {
	return pk.Verify(s.th.Root, s.sig)
}

// SignedMerkleTree holds a tree, its key pair, and an eagerly
// maintained cached signed head so Head is O(1) after every insert.
// Duplicate inserts (which return false) do not re-sign.
type SignedMerkleTree struct {
	mt  *MerkleTree
	kp  *KeyPair
	sth SignedTreeHead
}

// NewSignedMerkleTree creates an empty signed tree.
func NewSignedMerkleTree(d Digest, kp *KeyPair) *SignedMerkleTree {
	mt := NewMerkleTree(d)
	return &SignedMerkleTree{mt: mt, kp: kp, sth: newSignedTreeHead(kp, mt.Head())}
}

// NewSignedMerkleTreeFrom wraps an already-built tree with a key pair,
// signing its current head.
func NewSignedMerkleTreeFrom(mt *MerkleTree, kp *KeyPair) *SignedMerkleTree {
	return &SignedMerkleTree{mt: mt, kp: kp, sth: newSignedTreeHead(kp, mt.Head())}
}

// Insert inserts a leaf hash and, on success, re-signs the new head.
func (s *SignedMerkleTree) Insert(h Hash) bool {
	if !s.mt.Insert(h) {
		return false
	}
	s.sth = newSignedTreeHead(s.kp, s.mt.Head())
	return true
}

// Extend bulk-inserts leaf hashes and signs exactly once afterward.
func (s *SignedMerkleTree) Extend(hashes []Hash) {
	s.mt.Extend(hashes)
	s.sth = newSignedTreeHead(s.kp, s.mt.Head())
}

// Head returns the cached signed tree head.
func (s *SignedMerkleTree) Head() SignedTreeHead { return s.sth }

// InclusionProof builds a signed inclusion proof for leaf hash h.
func (s *SignedMerkleTree) InclusionProof(h Hash) (*SignedInclusionProof, bool) {
	base, ok := newInclusionProofBase(h, s.mt)
	if !ok {
		return nil, false
	}
	return &SignedInclusionProof{digest: s.mt.digest, base: base, sth: s.sth}, true
}

// ConsistencyProof builds a signed consistency proof from oldSize.
func (s *SignedMerkleTree) ConsistencyProof(oldSize uint64) (*SignedConsistencyProof, bool) {
	base, ok := newConsistencyProofBase(oldSize, s.mt)
	if !ok {
		return nil, false
	}
	return &SignedConsistencyProof{digest: s.mt.digest, base: base, sth: s.sth}, true
}

// Unwrap returns the underlying unsigned tree.
func (s *SignedMerkleTree) Unwrap() *MerkleTree { return s.mt }

// SignedInclusionProof is an inclusion proof paired with a signed tree
// head; verification checks the signature first, then the usual
// root-reconstruction.
type SignedInclusionProof struct {
	digest Digest
	base   *inclusionProofBase
	sth    SignedTreeHead
}

// TreeHead returns the signed tree head this proof was issued against.
func (p *SignedInclusionProof) TreeHead() SignedTreeHead { return p.sth }

// LeafHash returns the leaf's element hash.
func (p *SignedInclusionProof) LeafHash() Hash { return p.base.obj.Clone() }

// Index returns the leaf's 0-based index.
func (p *SignedInclusionProof) Index() uint64 { return p.base.pos }

// Siblings returns the sibling path, leaf-adjacent first.
func (p *SignedInclusionProof) Siblings() []Hash {
	out := make([]Hash, len(p.base.hashes))
	for i, h := range p.base.hashes {
		out[i] = h.Clone()
	}
	return out
}

// Verify checks the signature under pk, then the inclusion path.
func (p *SignedInclusionProof) Verify(pk PubKey) bool {
	if !p.sth.Verify(pk) {
		return false
	}
	return p.base.calc(p.digest, p.sth.Size()).Equal(p.sth.RootHash())
}

// SignedConsistencyProof is a consistency proof paired with a signed
// tree head.
type SignedConsistencyProof struct {
	digest Digest
	base   *consistencyProofBase
	sth    SignedTreeHead
}

// TreeHead returns the signed (new) tree head this proof was issued
// against.
func (p *SignedConsistencyProof) TreeHead() SignedTreeHead { return p.sth }

// OldSize returns the claimed earlier size.
func (p *SignedConsistencyProof) OldSize() uint64 { return p.base.oldSize }

// Hashes returns the proof's hash list.
func (p *SignedConsistencyProof) Hashes() []Hash {
	out := make([]Hash, len(p.base.hashes))
	for i, h := range p.base.hashes {
		out[i] = h.Clone()
	}
	return out
}

// Verify checks the signature under pk, then both root
// reconstructions.
func (p *SignedConsistencyProof) Verify(oldRoot Hash, pk PubKey) bool {
	if !p.sth.Verify(pk) {
		return false
	}
	oldCalc, ok := p.base.calcOld(p.digest, p.sth.Size(), oldRoot)
	if !ok || !oldCalc.Equal(oldRoot) {
		return false
	}
	newCalc, ok := p.base.calcNew(p.digest, p.sth.Size(), oldRoot)
	if !ok {
		return false
	}
	return newCalc.Equal(p.sth.RootHash())
}

// SignedOwningMerkleTree pairs a SignedMerkleTree with the original
// element values, mirroring OwningMerkleTree's relationship to
// MerkleTree.
type SignedOwningMerkleTree struct {
	smt  *SignedMerkleTree
	objs []Digestible
}

// NewSignedOwningMerkleTree creates an empty signed owning tree.
func NewSignedOwningMerkleTree(d Digest, kp *KeyPair) *SignedOwningMerkleTree {
	return &SignedOwningMerkleTree{smt: NewSignedMerkleTree(d, kp)}
}

// Insert hashes elem, inserts it, and re-signs on success.
func (s *SignedOwningMerkleTree) Insert(elem Digestible) bool {
	h := s.smt.mt.digest.Element(elem)
	if !s.smt.Insert(h) {
		return false
	}
	s.objs = append(s.objs, elem)
	return true
}

// Extend bulk-inserts elements.
//
// This is deliberately one insert at a time rather than collect-then-
// sign-once: unlike a plain SignedMerkleTree.Extend, each element must
// be individually checked against the dedup index before it is
// retained in objs, so the amortized signing this enables elsewhere
// does not apply here.
func (s *SignedOwningMerkleTree) Extend(elems []Digestible) {
	for _, e := range elems {
		s.Insert(e)
	}
}

// Head returns the cached signed tree head.
func (s *SignedOwningMerkleTree) Head() SignedTreeHead { return s.smt.sth }

// InclusionProof builds a signed inclusion proof for a leaf hash.
func (s *SignedOwningMerkleTree) InclusionProof(h Hash) (*SignedInclusionProof, bool) {
	return s.smt.InclusionProof(h)
}

// InclusionProofForElem is sugar for InclusionProof(element(elem)).
func (s *SignedOwningMerkleTree) InclusionProofForElem(elem Digestible) (*SignedInclusionProof, bool) {
	return s.smt.InclusionProof(s.smt.mt.digest.Element(elem))
}

// ConsistencyProof builds a signed consistency proof from oldSize.
func (s *SignedOwningMerkleTree) ConsistencyProof(oldSize uint64) (*SignedConsistencyProof, bool) {
	return s.smt.ConsistencyProof(oldSize)
}

// Unwrap returns the underlying signed (non-owning) tree.
func (s *SignedOwningMerkleTree) Unwrap() *SignedMerkleTree { return s.smt }
