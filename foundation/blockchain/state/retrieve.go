package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/balance"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveIdentity returns the public key of the node identity. It returns
// an empty string when the node has no identity.
func (s *State) RetrieveIdentity() string {
	id := s.signer()
	if id == nil {
		return ""
	}

	return id.PublicKey()
}

// RetrieveChain returns a copy of the chain.
func (s *State) RetrieveChain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.CloneChain(s.chain)
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tip().Clone()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Transaction {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// ResolveConflicts reports whether a peer showed this node is behind and
// Resolve should be run.
func (s *State) ResolveConflicts() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.resolveConflicts
}

// Balance returns the spendable balance of the participant. An empty
// participant means the node identity.
func (s *State) Balance(participant string) float64 {
	if participant == "" {
		participant = s.RetrieveIdentity()
		if participant == "" {
			return 0
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return balance.Calculate(participant, s.chain, s.mempool.Copy())
}

// BalanceSheet returns the balance of every participant known to the node.
func (s *State) BalanceSheet() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return balance.Sheet(s.chain, s.mempool.Copy())
}

// RetrieveStatus returns the information shared with peers about this node.
func (s *State) RetrieveStatus() peer.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tip := s.tip()

	return peer.Status{
		LatestBlockHash:  tip.Hash(),
		LatestBlockIndex: tip.Index,
		ChainLength:      len(s.chain),
		PoolLength:       s.mempool.Count(),
		ResolveConflicts: s.resolveConflicts,
		KnownPeers:       s.knownPeers.Hosts(),
	}
}
