package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// AddKnownPeer provides the ability to add a new peer. The node itself is
// never added.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownPeers.Add(pr) {
		return false
	}

	s.persist()
	return true
}

// RemoveKnownPeer provides the ability to remove a peer.
func (s *State) RemoveKnownPeer(pr peer.Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownPeers.Remove(pr) {
		return false
	}

	s.persist()
	return true
}

// SetIdentity replaces the node identity. Rewards for blocks mined from now
// on go to the new identity.
func (s *State) SetIdentity(id Signer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = id
	s.evHandler("state: SetIdentity: identity[%s]", id.PublicKey())
}
