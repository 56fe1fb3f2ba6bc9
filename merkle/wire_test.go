package merkle

import "testing"

func TestTreeHeadBinaryRoundTrip(t *testing.T) {
	d := SHA256Digest{}
	want := TreeHead{Size: 42, Root: d.Element(Bytes("root-stand-in"))}

	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	got, rest, err := UnmarshalTreeHead(data, d.Size())
	if err != nil {
		t.Fatalf("UnmarshalTreeHead: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected trailing bytes: %d", len(rest))
	}
	if got.Size != want.Size || !got.Root.Equal(want.Root) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestUnmarshalTreeHeadRejectsShortBuffer(t *testing.T) {
	d := SHA256Digest{}
	if _, _, err := UnmarshalTreeHead([]byte{1, 2, 3}, d.Size()); err == nil {
		t.Fatal("expected an error decoding a truncated buffer")
	}
}

func TestSignedTreeHeadBinaryRoundTrip(t *testing.T) {
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	d := SHA256Digest{}
	tree := NewSignedMerkleTree(d, kp)
	tree.Extend(elemHashes(d, 4))

	want := tree.Head()
	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	got, err := UnmarshalSignedTreeHead(data, d.Size())
	if err != nil {
		t.Fatalf("UnmarshalSignedTreeHead: %v", err)
	}
	if !got.Verify(kp.PubKey()) {
		t.Fatal("round-tripped signed tree head failed to verify")
	}
	if got.Size() != want.Size() || !got.RootHash().Equal(want.RootHash()) {
		t.Fatal("round-tripped signed tree head fields do not match")
	}
}

func TestPubKeyMarshalBinary(t *testing.T) {
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	data, err := kp.PubKey().MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != 32 {
		t.Fatalf("len = %d, want 32", len(data))
	}
}
