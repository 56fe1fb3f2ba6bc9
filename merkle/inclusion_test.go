package merkle

import "testing"

func TestInclusionProofRoundTrip(t *testing.T) {
	d := SHA256Digest{}
	for _, n := range []int{1, 2, 3, 4, 5, 8, 9, 16, 17, 31} {
		tree := NewMerkleTree(d)
		leaves := elemHashes(d, n)
		tree.Extend(leaves)

		for i, h := range leaves {
			proof, ok := tree.InclusionProof(h)
			if !ok {
				t.Fatalf("n=%d i=%d: expected inclusion proof to build", n, i)
			}
			if !proof.Verify() {
				t.Fatalf("n=%d i=%d: inclusion proof failed to verify", n, i)
			}
			if proof.Index() != uint64(i) {
				t.Fatalf("n=%d i=%d: Index() = %d, want %d", n, i, proof.Index(), i)
			}
		}
	}
}

func TestInclusionProofForAbsentLeafFails(t *testing.T) {
	d := SHA256Digest{}
	tree := NewMerkleTree(d)
	tree.Extend(elemHashes(d, 5))

	_, ok := tree.InclusionProof(d.Element(Bytes("never-inserted")))
	if ok {
		t.Fatal("expected no inclusion proof for a leaf that was never inserted")
	}
}

func TestInclusionProofRejectsTamperedSibling(t *testing.T) {
	d := SHA256Digest{}
	tree := NewMerkleTree(d)
	leaves := elemHashes(d, 7)
	tree.Extend(leaves)

	proof, ok := tree.InclusionProof(leaves[3])
	if !ok {
		t.Fatal("expected proof to build")
	}
	if len(proof.base.hashes) == 0 {
		t.Skip("no siblings to tamper with at this size/index")
	}
	proof.base.hashes[0] = d.Element(Bytes("tampered"))
	if proof.Verify() {
		t.Fatal("proof with a tampered sibling hash should not verify")
	}
}

func TestInclusionProofRejectsWrongTreeHead(t *testing.T) {
	d := SHA256Digest{}
	tree := NewMerkleTree(d)
	leaves := elemHashes(d, 6)
	tree.Extend(leaves)

	proof, ok := tree.InclusionProof(leaves[2])
	if !ok {
		t.Fatal("expected proof to build")
	}
	proof.th.Root = d.Element(Bytes("wrong-root"))
	if proof.Verify() {
		t.Fatal("proof verified against a forged root")
	}
}
