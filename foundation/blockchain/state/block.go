package state

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ProcessProposedBlock takes a block received from a peer and decides what
// to do with it based on its index. The block following the local tip is
// validated and appended. A block further ahead means this node is missing
// blocks, so the conflict flag is set and ErrChainAhead is returned. Any
// other block is stale and ErrChainBehind is returned.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: index[%d]: prevBlk[%s]: numTrans[%d]", block.Index, block.PreviousHash, len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: index[%d]", block.Index)

	if err := s.admitBlock(block); err != nil {
		return err
	}

	// If a mining operation is running it is working on a stale tip.
	s.evHandler("state: ProcessProposedBlock: signal mining to terminate")
	s.Worker.SignalCancelMining()

	s.blockEvent(block)

	return nil
}

// =============================================================================

// admitBlock validates the block against the local tip and updates the
// state of the node, including persisting the record.
func (s *State) admitBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.tip()

	switch {
	case block.Index > tip.Index+1:
		s.resolveConflicts = true
		return fmt.Errorf("%w: index[%d]: tip[%d]", ErrChainAhead, block.Index, tip.Index)

	case block.Index <= tip.Index:
		return fmt.Errorf("%w: index[%d]: tip[%d]", ErrChainBehind, block.Index, tip.Index)
	}

	s.evHandler("state: ProcessProposedBlock: validate block")

	if err := block.ValidateBlock(tip, s.evHandler); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	block = block.Clone()
	s.chain = append(s.chain, block)

	// Transactions mined by the peer are no longer pending here. The ones
	// this node never saw are ignored.
	removed := s.mempool.DeleteMatching(block.Transactions)
	s.evHandler("state: ProcessProposedBlock: removed from mempool: trans[%d]", removed)

	s.persist()

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`ledger: block: {"hash":%q,"block":%s}`, block.Hash(), string(blockJSON))
}

// txEvent provides a specific event about a new pending transaction.
func (s *State) txEvent(tx database.Transaction) {
	txJSON, err := json.Marshal(tx)
	if err != nil {
		txJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`ledger: tx: %s`, string(txJSON))
}
