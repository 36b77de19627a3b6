package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Disk stores the node record in a single file named after the node id.
// This implements the Storage interface.
type Disk struct {
	mu   sync.Mutex
	path string
}

// NewDisk constructs a Disk value for the specified node that keeps its
// file in the dbPath folder.
func NewDisk(dbPath string, nodeID string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	d := Disk{
		path: filepath.Join(dbPath, FileName(nodeID)),
	}

	return &d, nil
}

// FileName returns the name of the record file for the node.
func FileName(nodeID string) string {
	return fmt.Sprintf("blockchain-%s.txt", nodeID)
}

// Path returns the location of the record file.
func (d *Disk) Path() string {
	return d.path
}

// Load reads and decodes the record file.
func (d *Disk) Load() (Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	return Decode(data)
}

// Save replaces the record file. The new content is written to a temporary
// file first and renamed into place.
func (d *Disk) Save(record Record) error {
	data, err := Encode(record)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

// Close in this implementation has nothing to do since the file is
// opened and closed on every call.
func (d *Disk) Close() error {
	return nil
}
