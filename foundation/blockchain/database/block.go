package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
)

// Set of error variables for block validation.
var (
	ErrInvalidProof     = errors.New("proof of work is invalid")
	ErrPrevHashMismatch = errors.New("previous hash does not match parent block")
)

// Genesis block values.
const (
	genesisProof = 100
)

// =============================================================================

// Block represents a group of transactions batched together. This is the one
// record type used for hashing, persistence and the peer wire format.
type Block struct {
	Index        uint64        `json:"index"`
	PreviousHash string        `json:"previous_hash"`
	Transactions []Transaction `json:"transactions"`
	Proof        uint64        `json:"proof"`
	TimeStamp    uint64        `json:"timestamp"`
}

// hashableBlock is the canonical encoding of a block. The outer keys are
// declared in sorted order so the JSON encoding is key sorted.
type hashableBlock struct {
	Index        uint64        `json:"index"`
	PreviousHash string        `json:"previous_hash"`
	Proof        uint64        `json:"proof"`
	TimeStamp    uint64        `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
}

// Genesis returns the fixed first block of every chain.
func Genesis() Block {
	return Block{
		Index:        0,
		PreviousHash: "",
		Transactions: []Transaction{},
		Proof:        genesisProof,
		TimeStamp:    0,
	}
}

// NewBlock constructs the next block to append after the specified parent.
func NewBlock(index uint64, previousHash string, trans []Transaction, proof uint64) Block {
	return Block{
		Index:        index,
		PreviousHash: previousHash,
		Transactions: CloneTransactions(trans),
		Proof:        proof,
		TimeStamp:    uint64(time.Now().UTC().Unix()),
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	hb := hashableBlock{
		Index:        b.Index,
		PreviousHash: b.PreviousHash,
		Proof:        b.Proof,
		TimeStamp:    b.TimeStamp,
		Transactions: CloneTransactions(b.Transactions),
	}

	return signature.Hash(hb)
}

// Clone returns a copy of the block that shares no memory with the original.
func (b Block) Clone() Block {
	b.Transactions = CloneTransactions(b.Transactions)
	return b
}

// ProofTransactions returns the transactions the proof was computed over,
// which is every transaction except the trailing reward.
func (b Block) ProofTransactions() []Transaction {
	if len(b.Transactions) == 0 {
		return []Transaction{}
	}
	return b.Transactions[:len(b.Transactions)-1]
}

// ValidateBlock takes a block and validates it can follow the previous block
// in the chain.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: proof of work has been solved", b.Index)

	if !ValidProof(b.ProofTransactions(), b.PreviousHash, b.Proof) {
		return fmt.Errorf("blk[%d] proof[%d]: %w", b.Index, b.Proof, ErrInvalidProof)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if hash := previousBlock.Hash(); b.PreviousHash != hash {
		return fmt.Errorf("blk[%d] got %s, exp %s: %w", b.Index, b.PreviousHash, hash, ErrPrevHashMismatch)
	}

	return nil
}
