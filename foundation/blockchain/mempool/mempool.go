// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// entry is a transaction held in the pool. Equal transactions can be pooled
// more than once, the sequence number tells the copies apart.
type entry struct {
	seq uint64
	tx  database.Transaction
}

// Snapshot is an immutable copy of the pool taken at a point in time. It
// remembers which pool entries it was taken from.
type Snapshot struct {
	seqs  []uint64
	trans []database.Transaction
}

// Transactions returns a copy of the transactions in the snapshot.
func (s Snapshot) Transactions() []database.Transaction {
	return database.CloneTransactions(s.trans)
}

// Len returns the number of transactions in the snapshot.
func (s Snapshot) Len() int {
	return len(s.trans)
}

// =============================================================================

// Mempool represents an ordered cache of transactions not yet committed.
type Mempool struct {
	mu   sync.RWMutex
	pool []entry
	seq  uint64
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the end of the pool and returns the new size.
func (mp *Mempool) Add(tx database.Transaction) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.add(tx)

	return len(mp.pool)
}

// Replace drops the current contents and loads the specified transactions.
func (mp *Mempool) Replace(trans []database.Transaction) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
	for _, tx := range trans {
		mp.add(tx)
	}
}

// Copy returns a copy of the transactions in pool order.
func (mp *Mempool) Copy() []database.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.Transaction, len(mp.pool))
	for i, e := range mp.pool {
		trans[i] = e.tx
	}
	return trans
}

// Snapshot captures the current contents of the pool.
func (mp *Mempool) Snapshot() Snapshot {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	s := Snapshot{
		seqs:  make([]uint64, len(mp.pool)),
		trans: make([]database.Transaction, len(mp.pool)),
	}
	for i, e := range mp.pool {
		s.seqs[i] = e.seq
		s.trans[i] = e.tx
	}
	return s
}

// RemoveSnapshot removes exactly the entries captured by the snapshot.
// Entries added after the snapshot was taken stay in the pool, even when
// they are equal to a snapshotted transaction.
func (mp *Mempool) RemoveSnapshot(s Snapshot) int {
	taken := make(map[uint64]struct{}, len(s.seqs))
	for _, seq := range s.seqs {
		taken[seq] = struct{}{}
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	var removed int
	kept := mp.pool[:0]
	for _, e := range mp.pool {
		if _, exists := taken[e.seq]; exists {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	mp.pool = kept

	return removed
}

// DeleteMatching removes every pooled transaction that matches one of the
// specified transactions field for field. Transactions that are not in the
// pool are ignored.
func (mp *Mempool) DeleteMatching(trans []database.Transaction) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var removed int
	kept := mp.pool[:0]
	for _, e := range mp.pool {
		if contains(trans, e.tx) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	mp.pool = kept

	return removed
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// =============================================================================

// add appends the transaction with the next sequence number. The caller
// must hold the write lock.
func (mp *Mempool) add(tx database.Transaction) {
	mp.seq++
	mp.pool = append(mp.pool, entry{seq: mp.seq, tx: tx})
}

// contains reports whether the transaction matches one in the list.
func contains(trans []database.Transaction, tx database.Transaction) bool {
	for _, other := range trans {
		if other.Equals(tx) {
			return true
		}
	}
	return false
}
