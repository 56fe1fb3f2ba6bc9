package ctlog

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/kindlyrobotics/ctlog/merkle"
)

// STHResponse is the JSON wire form of a signed tree head.
type STHResponse struct {
	TreeSize  uint64 `json:"tree_size"`
	RootHash  string `json:"root_hash"` // base64
	Signature string `json:"signature"` // base64
}

func sthToResponse(sth merkle.SignedTreeHead) STHResponse {
	return STHResponse{
		TreeSize:  sth.Size(),
		RootHash:  base64.StdEncoding.EncodeToString(sth.RootHash()),
		Signature: base64.StdEncoding.EncodeToString(sth.Signature()),
	}
}

// InclusionProofResponse is the JSON wire form of an inclusion proof,
// bundled with the signed tree head it was issued against so a caller
// can verify both the signature and the inclusion path.
type InclusionProofResponse struct {
	LeafIndex uint64      `json:"leaf_index"`
	STH       STHResponse `json:"sth"`
	AuditPath []string    `json:"audit_path"` // base64, leaf-adjacent first
}

func inclusionProofToResponse(p *merkle.SignedInclusionProof) InclusionProofResponse {
	siblings := p.Siblings()
	path := make([]string, len(siblings))
	for i, h := range siblings {
		path[i] = base64.StdEncoding.EncodeToString(h)
	}
	return InclusionProofResponse{
		LeafIndex: p.Index(),
		STH:       sthToResponse(p.TreeHead()),
		AuditPath: path,
	}
}

// ConsistencyProofResponse is the JSON wire form of a consistency
// proof, bundled with the new signed tree head.
type ConsistencyProofResponse struct {
	OldSize uint64      `json:"old_size"`
	STH     STHResponse `json:"sth"`
	Hashes  []string    `json:"hashes"` // base64
}

func consistencyProofToResponse(p *merkle.SignedConsistencyProof) ConsistencyProofResponse {
	hashes := p.Hashes()
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = base64.StdEncoding.EncodeToString(h)
	}
	return ConsistencyProofResponse{
		OldSize: p.OldSize(),
		STH:     sthToResponse(p.TreeHead()),
		Hashes:  out,
	}
}

// AddLeafRequest is the request body for submitting a new element.
type AddLeafRequest struct {
	// Element is the hex-encoded raw bytes of the element to add.
	Element string `json:"element"`
}

func decodeElement(req AddLeafRequest) ([]byte, error) {
	return hex.DecodeString(req.Element)
}

// AddLeafResponse confirms whether a submission was new or a duplicate.
type AddLeafResponse struct {
	Added     bool   `json:"added"`
	LeafIndex uint64 `json:"leaf_index,omitempty"`
}
