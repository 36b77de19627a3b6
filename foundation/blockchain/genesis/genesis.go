// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultMiningReward is paid to the miner of every block unless the
// genesis file says otherwise.
const DefaultMiningReward = 10

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`
	ChainID      uint16    `json:"chain_id"`      // The chain id represents an unique id for this running instance.
	MiningReward float64   `json:"mining_reward"` // Reward for mining a block.
}

// Default returns the settings used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		ChainID:      1,
		MiningReward: DefaultMiningReward,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. An empty path returns the
// default settings. Fields missing from the file keep their defaults.
func Load(path string) (Genesis, error) {
	if path == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the settings are usable.
func (g Genesis) Validate() error {
	if g.MiningReward < 0 {
		return errors.New("mining reward can't be negative")
	}

	return nil
}
