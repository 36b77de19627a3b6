// Package leveldb stores the node record in an embedded LevelDB database.
// Several nodes can share one database since every record is keyed by its
// node id.
package leveldb

import (
	"errors"

	"github.com/ardanlabs/powchain/foundation/blockchain/storage"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB represents the serialization implementation for storing the
// node record in LevelDB. This implements the storage.Storage interface.
type LevelDB struct {
	db  *leveldb.DB
	key []byte
}

// New opens or creates the database at dbPath for the specified node.
func New(dbPath string, nodeID string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}

	ldb := LevelDB{
		db:  db,
		key: Key(nodeID),
	}

	return &ldb, nil
}

// Key returns the database key holding the record for the node.
func Key(nodeID string) []byte {
	return []byte("node:" + nodeID)
}

// Load reads and decodes the record for the node.
func (l *LevelDB) Load() (storage.Record, error) {
	data, err := l.db.Get(l.key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return storage.Record{}, storage.ErrNotFound
		}
		return storage.Record{}, err
	}

	return storage.Decode(data)
}

// Save replaces the record for the node.
func (l *LevelDB) Save(record storage.Record) error {
	data, err := storage.Encode(record)
	if err != nil {
		return err
	}

	return l.db.Put(l.key, data, nil)
}

// Close releases the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
