package worker

import (
	"context"
)

// peerOperations handles finding new peers.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	// Update this node before waiting on the first tick.
	w.runPeersOperation()

	for {
		select {
		case <-w.peerTicker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop talking to peers as soon as a shutdown is signaled.
	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	w.state.NetSyncPeers(ctx)
}
