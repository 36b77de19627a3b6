package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/state"
)

// tickOperations signals a mining operation on every tick of the auto
// mining interval.
func (w *Worker) tickOperations() {
	w.evHandler("worker: tickOperations: G started")
	defer w.evHandler("worker: tickOperations: G completed")

	for {
		select {
		case <-w.mineTicker.C:
			if !w.isShutdown() {
				w.SignalStartMining()
			}
		case <-w.shut:
			w.evHandler("worker: tickOperations: received shut signal")
			return
		}
	}
}

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation takes all the transactions from the mempool and writes a
// new block to the database.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// A node that is behind would mine on a stale tip.
	if w.state.ResolveConflicts() {
		w.evHandler("worker: runMiningOperation: MINING: unresolved conflict, skipping")
		return
	}

	// Make sure there are transactions in the mempool.
	length := len(w.state.RetrieveMempool())
	if length == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no transactions to mine: Txs[%d]", length)
		return
	}

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so mining can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-ctx.Done():
		}
	}()

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err := w.state.MineNewBlock(ctx)
		duration := time.Since(t)

		w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

		if err != nil {
			switch {
			case errors.Is(err, state.ErrMiningUnavailable):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: no node identity")
			case errors.Is(err, state.ErrChainAdvanced):
				w.evHandler("worker: runMiningOperation: MINING: chain advanced, will retry")
			case ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
			default:
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
			}
			return
		}

		w.evHandler("worker: runMiningOperation: MINING: mined block[%d]", block.Index)
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}
