package merkle

import "testing"

func TestSignedTreeHeadVerify(t *testing.T) {
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}

	d := SHA256Digest{}
	tree := NewSignedMerkleTree(d, kp)
	tree.Extend(elemHashes(d, 5))

	sth := tree.Head()
	if !sth.Verify(kp.PubKey()) {
		t.Fatal("signed tree head failed to verify under its own key")
	}

	other, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	if sth.Verify(other.PubKey()) {
		t.Fatal("signed tree head verified under an unrelated key")
	}
}

func TestSignedMerkleTreeCachesHeadAcrossDuplicates(t *testing.T) {
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	d := SHA256Digest{}
	tree := NewSignedMerkleTree(d, kp)

	h := d.Element(Bytes("only-leaf"))
	if !tree.Insert(h) {
		t.Fatal("first insert should succeed")
	}
	before := tree.Head()

	if tree.Insert(h) {
		t.Fatal("duplicate insert should be rejected")
	}
	after := tree.Head()

	if !before.RootHash().Equal(after.RootHash()) || before.Size() != after.Size() {
		t.Fatal("head should not change across a rejected duplicate insert")
	}
	if string(before.Signature()) != string(after.Signature()) {
		t.Fatal("a rejected duplicate insert should not trigger a re-sign")
	}
}

func TestSignedInclusionAndConsistencyProofs(t *testing.T) {
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	d := SHA256Digest{}
	tree := NewSignedMerkleTree(d, kp)
	leaves := elemHashes(d, 12)

	tree.Extend(leaves[:6])
	oldRoot := tree.Head().RootHash()
	tree.Extend(leaves[6:])

	incl, ok := tree.InclusionProof(leaves[2])
	if !ok {
		t.Fatal("expected signed inclusion proof to build")
	}
	if !incl.Verify(kp.PubKey()) {
		t.Fatal("signed inclusion proof failed to verify")
	}

	cons, ok := tree.ConsistencyProof(6)
	if !ok {
		t.Fatal("expected signed consistency proof to build")
	}
	if !cons.Verify(oldRoot, kp.PubKey()) {
		t.Fatal("signed consistency proof failed to verify")
	}

	other, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	if incl.Verify(other.PubKey()) {
		t.Fatal("signed inclusion proof verified under the wrong key")
	}
	if cons.Verify(oldRoot, other.PubKey()) {
		t.Fatal("signed consistency proof verified under the wrong key")
	}
}

func TestKeyPairPKCS8RoundTrip(t *testing.T) {
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	der, err := kp.MarshalPKCS8()
	if err != nil {
		t.Fatalf("MarshalPKCS8: %v", err)
	}
	restored, err := NewKeyPairFromPKCS8(der)
	if err != nil {
		t.Fatalf("NewKeyPairFromPKCS8: %v", err)
	}
	if string(restored.PubKey()) != string(kp.PubKey()) {
		t.Fatal("restored key pair has a different public key")
	}
}

func TestKeyPairFromPKCS8RejectsGarbage(t *testing.T) {
	if _, err := NewKeyPairFromPKCS8([]byte("not a real key")); err == nil {
		t.Fatal("expected an error for garbage PKCS8 input")
	}
}

func TestSignedOwningMerkleTree(t *testing.T) {
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	d := SHA256Digest{}
	tree := NewSignedOwningMerkleTree(d, kp)

	elems := []Digestible{Bytes("a"), Bytes("b"), Bytes("c"), Bytes("a")}
	tree.Extend(elems)

	if tree.Unwrap().Unwrap().Len() != 3 {
		t.Fatalf("len = %d, want 3 (duplicate should be rejected)", tree.Unwrap().Unwrap().Len())
	}

	proof, ok := tree.InclusionProofForElem(Bytes("b"))
	if !ok {
		t.Fatal("expected inclusion proof for an inserted element")
	}
	if !proof.Verify(kp.PubKey()) {
		t.Fatal("signed owning tree inclusion proof failed to verify")
	}
}
