// Package database handles the record types of the blockchain and the rules
// that tie them together: the canonical hash, the proof of work and chain
// validation.
package database

import (
	"errors"
	"fmt"
)

// ErrInvalidChain is returned when a chain fails validation.
var ErrInvalidChain = errors.New("invalid chain")

// =============================================================================

// ValidateChain checks every block after genesis links to its parent and
// carries a valid proof. The first violation fails the whole chain.
func ValidateChain(chain []Block, evHandler func(v string, args ...any)) error {
	if len(chain) == 0 {
		return fmt.Errorf("empty chain: %w", ErrInvalidChain)
	}

	for i := 1; i < len(chain); i++ {
		if err := chain[i].ValidateBlock(chain[i-1], evHandler); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChain, err)
		}
	}

	return nil
}

// CloneChain returns a copy of the chain that shares no memory with the
// original.
func CloneChain(chain []Block) []Block {
	cpy := make([]Block, len(chain))
	for i, block := range chain {
		cpy[i] = block.Clone()
	}
	return cpy
}

// NoopHandler is an event handler that discards every event.
func NoopHandler(v string, args ...any) {}
