package merkle

// consistencyProofBase is the unsigned, tree-head-independent part of a
// consistency proof: the claimed old size and the hash list produced by
// walking the tree from the root down to the old/new boundary.
type consistencyProofBase struct {
	oldSize uint64
	hashes  []Hash
}

// newConsistencyProofBase builds a proof that the tree's current state
// (size n) is a prefix-extension of an earlier state of size oldSize.
// It requires 0 < oldSize <= n; oldSize == n yields the trivial
// (empty-hash-list) proof.
func newConsistencyProofBase(oldSize uint64, t *MerkleTree) (*consistencyProofBase, bool) {
	n := uint64(t.Len())
	m := oldSize

	if oldSize == 0 || m > n {
		return nil, false
	}
	if m == n {
		return &consistencyProofBase{oldSize: oldSize}, true
	}

	var hashes []Hash
	b := true
	var offset uint64

	for m < n {
		k := nextPow2(n) / 2
		if m <= k {
			hashes = append(hashes, t.hashFromRange(offset+k, offset+n-1))
			n = k
		} else {
			hashes = append(hashes, t.hashFromRange(offset, offset+k-1))
			b = false
			m -= k
			offset += k
			n -= k
		}
	}

	if !b {
		hashes = append(hashes, t.hashFromRange(offset, offset+m-1))
	}
	if isPow2(oldSize) {
		hashes = append(hashes, t.hashFromRange(0, m-1))
	}

	return &consistencyProofBase{oldSize: oldSize, hashes: hashes}, true
}

// calcOld reconstructs the old root from the proof's hash list.
//
// The descent below can land the old-size boundary exactly on a
// subtree split; once it does, exactly one more hash must be consumed
// before folding starts. A malformed or adversarial hash list can
// leave the collector empty — the boundary never lands on a split, or
// it does but no further hash follows it. Folding over zero hashes
// would mean fabricating a seed value, so that case is rejected
// outright instead.
func (b *consistencyProofBase) calcOld(d Digest, n1 uint64, oldRoot Hash) (Hash, bool) {
	if len(b.hashes) == 0 {
		return oldRoot.Clone(), true
	}

	n0 := b.oldSize
	var collected []Hash
	flag := false

	for _, h := range b.hashes {
		if flag {
			collected = append(collected, h)
			break
		}
		k := nextPow2(n1) / 2
		switch {
		case n0 < k:
			n1 = k
		case n0 == k:
			flag = true
		default:
			collected = append(collected, h)
			n0 -= k
			n1 -= k
		}
	}

	if len(collected) == 0 {
		return nil, false
	}

	hashcalc := collected[len(collected)-1].Clone()
	for i := len(collected) - 2; i >= 0; i-- {
		hashcalc = d.Inner(collected[i], hashcalc)
	}
	return hashcalc, true
}

// calcNew reconstructs the new root from the proof's full hash list.
func (b *consistencyProofBase) calcNew(d Digest, n1 uint64, oldRoot Hash) (Hash, bool) {
	if len(b.hashes) == 0 {
		return oldRoot.Clone(), true
	}
	if len(b.hashes) < 2 {
		return nil, false
	}

	orders := make([]orientation, 0, len(b.hashes)-1)
	n0 := b.oldSize
	for i := 0; i < len(b.hashes)-2; i++ {
		k := nextPow2(n1) / 2
		if n0 < k {
			orders = append(orders, orientRight)
			n1 = k
		} else {
			orders = append(orders, orientLeft)
			n0 -= k
			n1 -= k
		}
	}
	orders = append(orders, orientRight)

	hashcalc := b.hashes[len(b.hashes)-1].Clone()
	j := len(orders) - 1
	for i := len(b.hashes) - 2; i >= 0; i-- {
		switch orders[j] {
		case orientLeft:
			hashcalc = d.Inner(b.hashes[i], hashcalc)
		default:
			hashcalc = d.Inner(hashcalc, b.hashes[i])
		}
		j--
	}

	return hashcalc, true
}

// ConsistencyProof proves that a log of the tree head's size is an
// append-only extension of an earlier log of a smaller (or equal)
// size.
type ConsistencyProof struct {
	digest Digest
	base   *consistencyProofBase
	th     TreeHead
}

// TreeHead returns the (new) tree head this proof was issued against.
func (p *ConsistencyProof) TreeHead() TreeHead { return p.th }

// OldSize returns the claimed earlier size.
func (p *ConsistencyProof) OldSize() uint64 { return p.base.oldSize }

// Hashes returns the proof's hash list.
func (p *ConsistencyProof) Hashes() []Hash {
	out := make([]Hash, len(p.base.hashes))
	for i, h := range p.base.hashes {
		out[i] = h.Clone()
	}
	return out
}

// Verify recomputes both the old and the new root from the proof and
// compares them to oldRoot and the tree head's root respectively. Both
// must match for the proof to be considered valid.
func (p *ConsistencyProof) Verify(oldRoot Hash) bool {
	oldCalc, ok := p.base.calcOld(p.digest, p.th.Size, oldRoot)
	if !ok || !oldCalc.Equal(oldRoot) {
		return false
	}
	newCalc, ok := p.base.calcNew(p.digest, p.th.Size, oldRoot)
	if !ok {
		return false
	}
	return newCalc.Equal(p.th.Root)
}

// ConsistencyProof builds a consistency proof from oldSize to the
// tree's current size, or reports false if oldSize is 0 or exceeds the
// current size.
func (t *MerkleTree) ConsistencyProof(oldSize uint64) (*ConsistencyProof, bool) {
	base, ok := newConsistencyProofBase(oldSize, t)
	if !ok {
		return nil, false
	}
	return &ConsistencyProof{digest: t.digest, base: base, th: t.Head()}, true
}
