// Package peer maintains the peer related information such as the set
// of know peers and their status.
package peer

import (
	"sort"
	"strings"
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host string
}

// New contructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: strings.TrimSpace(host),
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// Status represents information about the status of any given peer.
type Status struct {
	LatestBlockHash  string   `json:"latest_block_hash"`
	LatestBlockIndex uint64   `json:"latest_block_index"`
	ChainLength      int      `json:"chain_length"`
	PoolLength       int      `json:"pool_length"`
	ResolveConflicts bool     `json:"resolve_conflicts"`
	KnownPeers       []string `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set. It reports false when the peer is
// already known or the host is empty.
func (ps *PeerSet) Add(peer Peer) bool {
	if peer.Host == "" {
		return false
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set. It reports false when the peer
// was not known.
func (ps *PeerSet) Remove(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer]; !exists {
		return false
	}

	delete(ps.set, peer)
	return true
}

// Copy returns a list of the known peers, excluding the specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Host < peers[j].Host
	})

	return peers
}

// Hosts returns the sorted host names of every known peer.
func (ps *PeerSet) Hosts() []string {
	peers := ps.Copy("")

	hosts := make([]string, len(peers))
	for i, p := range peers {
		hosts[i] = p.Host
	}

	return hosts
}
