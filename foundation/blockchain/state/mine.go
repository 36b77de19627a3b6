package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
)

// MineNewBlock solves the proof of work over a snapshot of the mempool and
// appends the new block with the mining reward for the node identity. The
// search runs without holding the state lock. If the chain changed while
// searching the block is thrown away and ErrChainAdvanced is returned.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	id := s.signer()
	if id == nil {
		return database.Block{}, ErrMiningUnavailable
	}

	s.mu.RLock()
	lastHash := s.tip().Hash()
	length := len(s.chain)
	snapshot := s.mempool.Snapshot()
	s.mu.RUnlock()

	trans := snapshot.Transactions()

	s.evHandler("state: MineNewBlock: MINING: perform POW: trans[%d]", len(trans))

	// Attempt to solve the POW puzzle. This can be cancelled.
	proof, err := database.POW(ctx, trans, lastHash, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	for _, tx := range trans {
		if !s.verifier.Verify(tx) {
			return database.Block{}, fmt.Errorf("%w: tx[%s]", ErrInvalidSignature, tx)
		}
	}

	reward := database.NewRewardTransaction(id.PublicKey(), s.genesis.MiningReward)
	block := database.NewBlock(uint64(length), lastHash, append(trans, reward), proof)

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.appendMined(block, length, snapshot); err != nil {
		return database.Block{}, err
	}

	s.blockEvent(block)

	// The block is committed, share it even if the caller gave up.
	s.NetSendBlockToPeers(context.WithoutCancel(ctx), block)

	return block, nil
}

// =============================================================================

// appendMined adds the mined block if the chain is still the one the block
// was mined on, then removes the mined transactions from the mempool.
func (s *State) appendMined(block database.Block, length int, snapshot mempool.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.chain) != length || s.tip().Hash() != block.PreviousHash {
		return ErrChainAdvanced
	}

	s.chain = append(s.chain, block.Clone())
	s.mempool.RemoveSnapshot(snapshot)
	s.persist()

	return nil
}
