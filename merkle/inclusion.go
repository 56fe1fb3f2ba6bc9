package merkle

// orientation records which side of a combine a sibling hash belongs
// on when reconstructing a root from a leaf and its sibling path.
type orientation int

const (
	orientLeft orientation = iota
	orientRight
)

// inclusionProofBase is the unsigned, tree-head-independent part of an
// inclusion proof: the leaf, its index, and the sibling path collected
// while walking from the leaf up to the root.
type inclusionProofBase struct {
	obj    Hash
	pos    uint64
	hashes []Hash
}

// newInclusionProofBase walks from the leaf at h's index up to the
// root, emitting a sibling hash at every level where the node is not
// the sole (collapsed) child of its parent.
func newInclusionProofBase(h Hash, t *MerkleTree) (*inclusionProofBase, bool) {
	i, ok := t.leafIndex[string(h)]
	if !ok {
		return nil, false
	}

	var hashes []Hash
	pos := t.cap()/2 + uint64(i)
	for pos > 1 {
		parent := pos / 2
		if !t.buf[pos].Equal(t.buf[parent]) {
			if pos%2 == 0 {
				hashes = append(hashes, t.buf[pos+1].Clone())
			} else {
				hashes = append(hashes, t.buf[pos-1].Clone())
			}
		}
		pos = parent
	}

	return &inclusionProofBase{obj: h.Clone(), pos: uint64(i), hashes: hashes}, true
}

// calc recomputes the claimed root hash for a tree of size n from the
// leaf and its sibling path. It never panics on adversarial n: the
// orientation loop runs exactly len(hashes) times regardless of n, and
// every subtraction below is guarded by the branch that selects it.
func (b *inclusionProofBase) calc(d Digest, n uint64) Hash {
	hash := d.Leaf(b.obj)

	orders := make([]orientation, 0, len(b.hashes))
	m, nn := b.pos, n
	for range b.hashes {
		k := nextPow2(nn) / 2
		if m < k {
			nn = k
			orders = append(orders, orientLeft)
		} else {
			nn -= k
			m -= k
			orders = append(orders, orientRight)
		}
	}

	for idx, h := range b.hashes {
		o := orders[len(orders)-1-idx]
		if o == orientLeft {
			hash = d.Inner(hash, h)
		} else {
			hash = d.Inner(h, hash)
		}
	}

	return hash
}

// InclusionProof proves that a specific leaf hash is present at a
// specific index in a log of a specific size.
type InclusionProof struct {
	digest Digest
	base   *inclusionProofBase
	th     TreeHead
}

// TreeHead returns the tree head this proof was issued against.
func (p *InclusionProof) TreeHead() TreeHead { return p.th }

// LeafHash returns the leaf's element hash.
func (p *InclusionProof) LeafHash() Hash { return p.base.obj.Clone() }

// Index returns the leaf's 0-based index.
func (p *InclusionProof) Index() uint64 { return p.base.pos }

// Siblings returns the sibling path, leaf-adjacent first.
func (p *InclusionProof) Siblings() []Hash {
	out := make([]Hash, len(p.base.hashes))
	for i, h := range p.base.hashes {
		out[i] = h.Clone()
	}
	return out
}

// Verify recomputes the root from the leaf, the sibling path, and the
// tree head's claimed size, and compares it to the tree head's root.
func (p *InclusionProof) Verify() bool {
	return p.base.calc(p.digest, p.th.Size).Equal(p.th.Root)
}

// InclusionProof builds an inclusion proof for leaf hash h, or reports
// false if h was never inserted.
func (t *MerkleTree) InclusionProof(h Hash) (*InclusionProof, bool) {
	base, ok := newInclusionProofBase(h, t)
	if !ok {
		return nil, false
	}
	return &InclusionProof{digest: t.digest, base: base, th: t.Head()}, true
}
