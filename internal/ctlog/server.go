// Package ctlog is the HTTP front end for a running transparency log:
// a thin, mutex-guarded wrapper around the pure merkle package that
// exposes RFC 6962-style endpoints (add an entry, fetch the current
// signed tree head, fetch inclusion/consistency proofs) over
// gorilla/mux, persists through ctstore, and pushes new tree heads to
// ctnotify subscribers.
package ctlog

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/kindlyrobotics/ctlog/internal/ctnotify"
	"github.com/kindlyrobotics/ctlog/internal/ctstore"
	"github.com/kindlyrobotics/ctlog/merkle"
)

// Server owns the single in-memory log and fans requests for it out
// to the pure, non-concurrent merkle package behind a mutex: the core
// itself is never safe for concurrent writers, so ctlog is the layer
// that serializes access to it.
type Server struct {
	mu    sync.Mutex
	tree  *merkle.SignedOwningMerkleTree
	store *ctstore.Store
	hub   *ctnotify.Hub
}

// NewServer builds a server around an already-keyed signed owning
// tree, persisted through store and pushing STH updates through hub.
func NewServer(d merkle.Digest, kp *merkle.KeyPair, store *ctstore.Store, hub *ctnotify.Hub) *Server {
	return &Server{
		tree:  merkle.NewSignedOwningMerkleTree(d, kp),
		store: store,
		hub:   hub,
	}
}

// Router builds the gorilla/mux router exposing this server's
// endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ct/v1/add-leaf", s.handleAddLeaf).Methods("POST")
	r.HandleFunc("/ct/v1/get-sth", s.handleGetSTH).Methods("GET")
	r.HandleFunc("/ct/v1/get-proof-by-hash", s.handleGetInclusionProof).Methods("GET")
	r.HandleFunc("/ct/v1/get-sth-consistency", s.handleGetConsistencyProof).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddLeaf(w http.ResponseWriter, r *http.Request) {
	var req AddLeafRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	element, err := decodeElement(req)
	if err != nil {
		http.Error(w, "element must be hex-encoded", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	added := s.tree.Insert(merkle.Bytes(element))
	sth := s.tree.Head()
	var leafIndex uint64
	if added {
		leafIndex = sth.Size() - 1
	}
	s.mu.Unlock()

	if added {
		ctx := r.Context()
		if err := s.store.AppendLeaf(ctx, leafIndex, s.tree.Unwrap().Unwrap().Digest().Element(merkle.Bytes(element)), element); err != nil {
			log.Printf("[ctlog] failed to persist leaf: %v", err)
		}
		if err := s.store.RecordTreeHead(ctx, sth); err != nil {
			log.Printf("[ctlog] failed to persist tree head: %v", err)
		}
		s.hub.Broadcast(sthToResponse(sth))
	}

	writeJSON(w, http.StatusOK, AddLeafResponse{Added: added, LeafIndex: leafIndex})
}

func (s *Server) handleGetSTH(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sth := s.tree.Head()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, sthToResponse(sth))
}

func (s *Server) handleGetInclusionProof(w http.ResponseWriter, r *http.Request) {
	hashHex := r.URL.Query().Get("hash")
	leafHash, err := decodeElement(AddLeafRequest{Element: hashHex})
	if err != nil {
		http.Error(w, "hash must be hex-encoded", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	proof, ok := s.tree.InclusionProof(merkle.Hash(leafHash))
	s.mu.Unlock()

	if !ok {
		http.Error(w, "leaf not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, inclusionProofToResponse(proof))
}

func (s *Server) handleGetConsistencyProof(w http.ResponseWriter, r *http.Request) {
	oldSize, err := strconv.ParseUint(r.URL.Query().Get("first"), 10, 64)
	if err != nil {
		http.Error(w, "first must be a decimal tree size", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	proof, ok := s.tree.ConsistencyProof(oldSize)
	s.mu.Unlock()

	if !ok {
		http.Error(w, "invalid old size", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, consistencyProofToResponse(proof))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ctlog] failed to encode response: %v", err)
	}
}
