// Package worker implements background mining and peer updates for the
// blockchain.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/state"
)

// peerUpdateInterval represents the interval of finding new peer nodes
// and checking if a peer holds a longer chain.
const peerUpdateInterval = time.Minute

// =============================================================================

// Config represents the settings for the worker.
type Config struct {
	AutoMine     time.Duration // Interval between mining attempts, 0 turns mining off.
	PeerInterval time.Duration // Interval between peer updates, 0 uses the default.
}

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	mineTicker   *time.Ticker
	peerTicker   *time.Ticker
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan bool
	autoMine     bool
	evHandler    state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, cfg Config, evHandler state.EventHandler) *Worker {
	peerInterval := cfg.PeerInterval
	if peerInterval <= 0 {
		peerInterval = peerUpdateInterval
	}

	w := Worker{
		state:        st,
		peerTicker:   time.NewTicker(peerInterval),
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan bool, 1),
		autoMine:     cfg.AutoMine > 0,
		evHandler:    evHandler,
	}

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
	}

	if w.autoMine {
		w.mineTicker = time.NewTicker(cfg.AutoMine)
		operations = append(operations, w.miningOperations, w.tickOperations)
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop tickers")
	w.peerTicker.Stop()
	if w.mineTicker != nil {
		w.mineTicker.Stop()
	}

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	if !w.autoMine {
		return
	}

	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
