// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the known participants.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
)

// NameService maintains a map of public keys for name lookup.
type NameService struct {
	accounts map[string]string
}

// New constructs a name service with the key files found under root.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[string]string),
	}

	// A node without an accounts folder has nobody to name.
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return &ns, nil
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		id, err := identity.Load(fileName)
		if err != nil {
			return err
		}

		ns.accounts[id.PublicKey()] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified public key.
func (ns *NameService) Lookup(account string) string {
	name, exists := ns.accounts[account]
	if !exists {
		return account
	}
	return name
}

// Copy returns a copy of the map of public keys and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.accounts))
	for account, name := range ns.accounts {
		cpy[account] = name
	}
	return cpy
}
