// Package state is the core API for the blockchain and implements all the
// business rules and processing. It owns the chain, the mempool and the set
// of known peers for a single node.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage"
)

// Set of errors returned by the state API.
var (
	ErrInvalidSignature  = errors.New("transaction signature is invalid")
	ErrInvalidAmount     = errors.New("transaction amount is invalid")
	ErrRewardSender      = errors.New("reward transactions can't be submitted")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidBlock      = errors.New("block is invalid")
	ErrChainAhead        = errors.New("block is ahead of the local chain")
	ErrChainBehind       = errors.New("block is behind the local chain")
	ErrPeerDeclined      = errors.New("one or more peers declined")
	ErrMiningUnavailable = errors.New("mining requires a node identity")
	ErrChainAdvanced     = errors.New("chain advanced while mining")
	ErrPersistence       = errors.New("node record not persisted")
)

// DefaultPeerTimeout bounds every call made to a single peer.
const DefaultPeerTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// Verifier checks the authenticity of a transaction.
type Verifier interface {
	Verify(tx database.Transaction) bool
}

// Signer is the identity of the node. It receives the mining rewards.
type Signer interface {
	PublicKey() string
	Sign(sender string, recipient string, amount float64) (string, error)
}

// Transport is the behavior required to talk to peers. Implementations
// report a refusal with transport.ErrDeclined or transport.ErrConflict and
// a network failure with transport.ErrUnreachable.
type Transport interface {
	SendTransaction(ctx context.Context, host string, tx database.Transaction) error
	SendBlock(ctx context.Context, host string, block database.Block) error
	FetchChain(ctx context.Context, host string) ([]database.Block, error)
	FetchStatus(ctx context.Context, host string) (peer.Status, error)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Identity    Signer
	Host        string
	Storage     storage.Storage
	Transport   Transport
	Verifier    Verifier
	KnownPeers  *peer.PeerSet
	Genesis     genesis.Genesis
	PeerTimeout time.Duration
	EvHandler   EventHandler
}

// State manages the blockchain database.
type State struct {
	mu               sync.RWMutex
	identity         Signer
	host             string
	evHandler        EventHandler
	chain            []database.Block
	resolveConflicts bool

	genesis     genesis.Genesis
	mempool     *mempool.Mempool
	knownPeers  *peer.PeerSet
	storage     storage.Storage
	transport   Transport
	verifier    Verifier
	peerTimeout time.Duration

	Worker Worker
}

// New constructs a new blockchain for data management. The node record is
// loaded from storage. A missing or unusable record starts the node with
// only the genesis block.
func New(cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if cfg.Transport == nil {
		return nil, errors.New("transport is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = identity.Verifier{}
	}

	// A zero value genesis means no genesis file was provided.
	gen := cfg.Genesis
	if gen.ChainID == 0 {
		gen = genesis.Default()
	}

	peerTimeout := cfg.PeerTimeout
	if peerTimeout <= 0 {
		peerTimeout = DefaultPeerTimeout
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	record := load(cfg.Storage, ev)

	for _, host := range record.Peers {
		knownPeers.Add(peer.New(host))
	}

	mp := mempool.New()
	mp.Replace(record.Pool)

	state := State{
		identity:  cfg.Identity,
		host:      cfg.Host,
		evHandler: ev,
		chain:     record.Chain,

		genesis:     gen,
		mempool:     mp,
		knownPeers:  knownPeers,
		storage:     cfg.Storage,
		transport:   cfg.Transport,
		verifier:    verifier,
		peerTimeout: peerTimeout,

		// The worker package replaces this when background mining runs.
		Worker: noopWorker{},
	}

	ev("state: New: loaded: blocks[%d]: pool[%d]: peers[%d]", len(record.Chain), len(record.Pool), len(knownPeers.Hosts()))

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.storage.Close()
}

// =============================================================================

// load reads the node record from storage and falls back to a fresh record
// when nothing usable is found.
func load(strg storage.Storage, ev EventHandler) storage.Record {
	record, err := strg.Load()
	switch {
	case errors.Is(err, storage.ErrNotFound):
		ev("state: load: no record found, starting from genesis")
		return storage.Fresh()

	case err != nil:
		ev("state: load: WARNING: unreadable record, starting from genesis: %s", err)
		return storage.Fresh()
	}

	if err := database.ValidateChain(record.Chain, ev); err != nil {
		ev("state: load: WARNING: invalid chain, starting from genesis: %s", err)
		return storage.Fresh()
	}

	return record
}

// persist writes the node record to storage. A failure is reported but
// the in memory state is kept. The caller must hold the write lock.
func (s *State) persist() {
	record := storage.Record{
		Chain: s.chain,
		Pool:  s.mempool.Copy(),
		Peers: s.knownPeers.Hosts(),
	}

	if err := s.storage.Save(record); err != nil {
		s.evHandler("state: persist: WARNING: %s", fmt.Errorf("%w: %w", ErrPersistence, err))
	}
}

// signer returns the node identity, nil if there is none.
func (s *State) signer() Signer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.identity
}

// tip returns the last block of the chain. The caller must hold a lock.
func (s *State) tip() database.Block {
	return s.chain[len(s.chain)-1]
}

// =============================================================================

// noopWorker is used until a worker registers itself.
type noopWorker struct{}

func (noopWorker) Shutdown()           {}
func (noopWorker) SignalStartMining()  {}
func (noopWorker) SignalCancelMining() {}
