package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/transport"
)

// NetSendTxToPeers shares a new transaction with the known peers. Peers that
// can't be reached are skipped. If any peer declines the transaction
// ErrPeerDeclined is returned.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Transaction) error {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	var mu sync.Mutex
	var declined []string

	f := func(ctx context.Context, pr peer.Peer) {
		err := s.transport.SendTransaction(ctx, pr.Host, tx)
		switch {
		case err == nil:
			s.evHandler("state: NetSendTxToPeers: sent to peer[%s]", pr.Host)

		case errors.Is(err, transport.ErrDeclined), errors.Is(err, transport.ErrConflict):
			s.evHandler("state: NetSendTxToPeers: declined by peer[%s]: %s", pr.Host, err)
			mu.Lock()
			declined = append(declined, pr.Host)
			mu.Unlock()

		default:
			s.evHandler("state: NetSendTxToPeers: WARNING: skipping peer[%s]: %s", pr.Host, err)
		}
	}

	s.forEachPeer(ctx, f)

	if len(declined) > 0 {
		return fmt.Errorf("%w: %v", ErrPeerDeclined, declined)
	}

	return nil
}

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers. A peer reporting a conflict means the chains diverged, so the
// conflict flag is set. Other failures are skipped.
func (s *State) NetSendBlockToPeers(ctx context.Context, block database.Block) {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	f := func(ctx context.Context, pr peer.Peer) {
		err := s.transport.SendBlock(ctx, pr.Host, block)
		switch {
		case err == nil:
			s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]", pr.Host)

		case errors.Is(err, transport.ErrConflict):
			s.evHandler("state: NetSendBlockToPeers: conflict with peer[%s]: %s", pr.Host, err)
			s.mu.Lock()
			s.resolveConflicts = true
			s.mu.Unlock()

		default:
			s.evHandler("state: NetSendBlockToPeers: WARNING: skipping peer[%s]: %s", pr.Host, err)
		}
	}

	s.forEachPeer(ctx, f)
}

// NetRequestPeerChains asks every known peer for its chain. The result is
// in peer order. A peer that could not answer has a nil chain.
func (s *State) NetRequestPeerChains(ctx context.Context) ([]peer.Peer, [][]database.Block) {
	s.evHandler("state: NetRequestPeerChains: started")
	defer s.evHandler("state: NetRequestPeerChains: completed")

	peers := s.RetrieveKnownPeers()
	chains := make([][]database.Block, len(peers))

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for i, pr := range peers {
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
			defer cancel()

			chain, err := s.transport.FetchChain(ctx, pr.Host)
			if err != nil {
				s.evHandler("state: NetRequestPeerChains: WARNING: skipping peer[%s]: %s", pr.Host, err)
				return
			}

			s.evHandler("state: NetRequestPeerChains: peer[%s]: blocks[%d]", pr.Host, len(chain))
			chains[i] = chain
		}()
	}

	wg.Wait()

	return peers, chains
}

// NetSyncPeers asks every known peer for its status. Peers known to them
// are added to this node. If a peer holds a longer chain the conflict flag
// is set so the node can be resolved.
func (s *State) NetSyncPeers(ctx context.Context) {
	s.evHandler("state: NetSyncPeers: started")
	defer s.evHandler("state: NetSyncPeers: completed")

	var mu sync.Mutex
	var discovered []string
	var longest int

	f := func(ctx context.Context, pr peer.Peer) {
		status, err := s.transport.FetchStatus(ctx, pr.Host)
		if err != nil {
			s.evHandler("state: NetSyncPeers: WARNING: skipping peer[%s]: %s", pr.Host, err)
			return
		}

		s.evHandler("state: NetSyncPeers: peer[%s]: latest-blk[%d]: peer-list%v", pr.Host, status.LatestBlockIndex, status.KnownPeers)

		mu.Lock()
		defer mu.Unlock()

		discovered = append(discovered, status.KnownPeers...)
		longest = max(longest, status.ChainLength)
	}

	s.forEachPeer(ctx, f)

	// Add new peers to this nodes list.
	for _, host := range discovered {
		if s.AddKnownPeer(peer.New(host)) {
			s.evHandler("state: NetSyncPeers: add peer[%s]", host)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if longest > len(s.chain) {
		s.evHandler("state: NetSyncPeers: peer chain is longer: local[%d]: peer[%d]", len(s.chain), longest)
		s.resolveConflicts = true
	}
}

// =============================================================================

// forEachPeer runs the function for every known peer concurrently, each
// with its own timeout, and waits for all of them to finish.
func (s *State) forEachPeer(ctx context.Context, f func(ctx context.Context, pr peer.Peer)) {
	peers := s.RetrieveKnownPeers()

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for _, pr := range peers {
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
			defer cancel()

			f(ctx, pr)
		}()
	}

	wg.Wait()
}
