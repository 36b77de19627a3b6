// Package storage handles all the lower level support for maintaining the
// node state between restarts. A node record holds the chain, the pending
// pool and the known peers.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ErrNotFound is returned when no record exists for a node.
var ErrNotFound = errors.New("record not found")

// Storage is the interface required by the state package to persist the
// node record.
type Storage interface {
	Load() (Record, error)
	Save(record Record) error
	Close() error
}

// =============================================================================

// Record is everything a node persists about itself.
type Record struct {
	Chain []database.Block
	Pool  []database.Transaction
	Peers []string
}

// Fresh returns the record of a node that has never run before.
func Fresh() Record {
	return Record{
		Chain: []database.Block{database.Genesis()},
		Pool:  []database.Transaction{},
		Peers: []string{},
	}
}

// Encode writes the record as three newline separated JSON documents: the
// chain, the pool and the peers.
func Encode(record Record) ([]byte, error) {
	chain := record.Chain
	if chain == nil {
		chain = []database.Block{}
	}

	pool := database.CloneTransactions(record.Pool)

	peers := record.Peers
	if peers == nil {
		peers = []string{}
	}

	var buf bytes.Buffer
	for i, v := range []any{chain, pool, peers} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode line %d: %w", i, err)
		}

		buf.Write(data)
		if i < 2 {
			buf.WriteByte('\n')
		}
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode. The chain must hold at least
// the genesis block.
func Decode(data []byte) (Record, error) {
	lines := bytes.SplitN(bytes.TrimRight(data, "\r\n"), []byte{'\n'}, 3)
	if len(lines) != 3 {
		return Record{}, fmt.Errorf("decode: expected 3 lines, got %d", len(lines))
	}

	var record Record
	if err := json.Unmarshal(lines[0], &record.Chain); err != nil {
		return Record{}, fmt.Errorf("decode chain: %w", err)
	}
	if err := json.Unmarshal(lines[1], &record.Pool); err != nil {
		return Record{}, fmt.Errorf("decode pool: %w", err)
	}
	if err := json.Unmarshal(lines[2], &record.Peers); err != nil {
		return Record{}, fmt.Errorf("decode peers: %w", err)
	}

	if len(record.Chain) == 0 {
		return Record{}, errors.New("decode: chain is empty")
	}

	for i := range record.Chain {
		record.Chain[i].Transactions = database.CloneTransactions(record.Chain[i].Transactions)
	}
	record.Pool = database.CloneTransactions(record.Pool)
	if record.Peers == nil {
		record.Peers = []string{}
	}

	return record, nil
}
