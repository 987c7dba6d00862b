package chat

import (
	"sync"
)

// Registry maps a user id to the set of live peers for that user. It is the
// only structure in the realtime layer mutated from more than one goroutine;
// the lock is held around map mutation only, never around I/O.
type Registry struct {
	mu    sync.Mutex
	peers map[int64]map[*Peer]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[int64]map[*Peer]struct{})}
}

// Register adds a peer to the user's connection set. Registering the same
// peer twice is a no-op. It reports whether the user went from absent to
// present, which is the signal for an online presence transition.
func (r *Registry) Register(userID int64, peer *Peer) (first bool) {
	if peer == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.peers[userID]
	if !ok {
		set = make(map[*Peer]struct{})
		r.peers[userID] = set
	}
	set[peer] = struct{}{}
	return !ok
}

// Unregister removes a peer from the user's connection set and prunes the
// user entry the moment the set empties. It reports whether the user went
// from present to absent. Removing an unknown peer is a no-op.
func (r *Registry) Unregister(userID int64, peer *Peer) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.peers[userID]
	if !ok {
		return false
	}
	if _, ok := set[peer]; !ok {
		return false
	}
	delete(set, peer)
	if len(set) == 0 {
		delete(r.peers, userID)
		return true
	}
	return false
}

// Peers returns a snapshot of the user's live peers, empty when absent.
func (r *Registry) Peers(userID int64) []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.peers[userID]
	peers := make([]*Peer, 0, len(set))
	for peer := range set {
		peers = append(peers, peer)
	}
	return peers
}

// IsPresent reports whether the user has at least one live peer.
func (r *Registry) IsPresent(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers[userID]) > 0
}

// Size reports how many peers the user currently has registered.
func (r *Registry) Size(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers[userID])
}
