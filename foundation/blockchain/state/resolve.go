package state

import (
	"context"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Resolve asks every known peer for its chain and replaces the local chain
// with the longest valid one, as long as it is strictly longer than the
// local chain. Peers are considered in host order so the outcome does not
// depend on which peer answered first. On replacement the mempool is
// cleared. The conflict flag is cleared either way.
func (s *State) Resolve(ctx context.Context) bool {
	s.evHandler("state: Resolve: started")
	defer s.evHandler("state: Resolve: completed")

	winner := s.RetrieveChain()
	local := len(winner)

	peers, chains := s.NetRequestPeerChains(ctx)

	for i, chain := range chains {
		if len(chain) <= len(winner) {
			continue
		}

		if err := database.ValidateChain(chain, s.evHandler); err != nil {
			s.evHandler("state: Resolve: WARNING: peer[%s]: %s", peers[i].Host, err)
			continue
		}

		s.evHandler("state: Resolve: candidate: peer[%s]: blocks[%d]", peers[i].Host, len(chain))
		winner = chain
	}

	replaced := s.replaceChain(winner)

	s.evHandler("state: Resolve: local[%d]: winner[%d]: replaced[%t]", local, len(winner), replaced)

	if replaced {
		// If a mining operation is running it is working on a stale tip.
		s.Worker.SignalCancelMining()
	}

	return replaced
}

// =============================================================================

// replaceChain swaps in the chain if it is longer than the local chain at
// the time of the call.
func (s *State) replaceChain(chain []database.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolveConflicts = false

	if len(chain) <= len(s.chain) {
		return false
	}

	s.chain = database.CloneChain(chain)
	s.mempool.Truncate()
	s.persist()

	return true
}
