package merkle

import "testing"

func TestOwningTreeMatchesNonOwningRoot(t *testing.T) {
	d := SHA256Digest{}
	elems := []Digestible{Bytes("alpha"), Bytes("beta"), Bytes("gamma"), Bytes("delta")}

	owning := NewOwningMerkleTree(d)
	owning.Extend(elems)

	plain := NewMerkleTree(d)
	for _, e := range elems {
		plain.Insert(d.Element(e))
	}

	if !owning.Head().Root.Equal(plain.Head().Root) {
		t.Fatal("owning tree root differs from an equivalent non-owning tree")
	}
}

func TestOwningTreeRejectsDuplicateElements(t *testing.T) {
	d := SHA256Digest{}
	owning := NewOwningMerkleTree(d)

	if !owning.Insert(Bytes("once")) {
		t.Fatal("first insert should succeed")
	}
	if owning.Insert(Bytes("once")) {
		t.Fatal("duplicate element insert should be rejected")
	}
	if owning.Len() != 1 {
		t.Fatalf("len = %d, want 1", owning.Len())
	}
}

func TestOwningTreeElemAndInclusionForElem(t *testing.T) {
	d := SHA256Digest{}
	owning := NewOwningMerkleTree(d)
	owning.Extend([]Digestible{Bytes("x"), Bytes("y"), Bytes("z")})

	if string(owning.Elem(1).HashBytes()) != "y" {
		t.Fatalf("Elem(1) = %q, want %q", owning.Elem(1).HashBytes(), "y")
	}

	proof, ok := owning.InclusionProofForElem(Bytes("z"))
	if !ok {
		t.Fatal("expected inclusion proof for an inserted element")
	}
	if !proof.Verify() {
		t.Fatal("inclusion proof for owned element failed to verify")
	}

	if _, ok := owning.InclusionProofForElem(Bytes("never-inserted")); ok {
		t.Fatal("expected no inclusion proof for an element never inserted")
	}
}

func TestOwningTreeConsistencyProof(t *testing.T) {
	d := SHA256Digest{}
	owning := NewOwningMerkleTree(d)
	owning.Extend([]Digestible{Bytes("1"), Bytes("2"), Bytes("3")})
	oldRoot := owning.Head().Root

	owning.Extend([]Digestible{Bytes("4"), Bytes("5")})

	proof, ok := owning.ConsistencyProof(3)
	if !ok {
		t.Fatal("expected consistency proof to build")
	}
	if !proof.Verify(oldRoot) {
		t.Fatal("owning tree consistency proof failed to verify")
	}
}
