package database

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
)

// difficultyPrefix is the fixed prefix a proof digest must start with. There
// is no retargeting.
const difficultyPrefix = "00"

// =============================================================================

// ValidProof checks the proof solves the puzzle for the specified
// transactions and parent hash.
func ValidProof(trans []Transaction, lastHash string, proof uint64) bool {
	prefix, err := proofPrefix(trans, lastHash)
	if err != nil {
		return false
	}

	return isHashSolved(prefix, proof)
}

// POW performs the work of finding the smallest proof that solves the puzzle
// for the specified transactions and parent hash. The search does not touch
// any shared state and can be cancelled through the context.
func POW(ctx context.Context, trans []Transaction, lastHash string, ev func(v string, args ...any)) (uint64, error) {
	ev("database: POW: MINING: started")
	defer ev("database: POW: MINING: completed")

	// Log the transactions that are a part of this potential block.
	for _, tx := range trans {
		ev("database: POW: MINING: tx[%s]", tx)
	}

	// The transactions and parent hash don't change during the search so
	// they are encoded once.
	prefix, err := proofPrefix(trans, lastHash)
	if err != nil {
		return 0, err
	}

	// Loop until we find a solution or are cancelled.
	var proof uint64
	for {
		if proof%1_000_000 == 0 && proof > 0 {
			ev("database: POW: MINING: attempts[%d]", proof)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED")
			return 0, ctx.Err()
		}

		if isHashSolved(prefix, proof) {
			ev("database: POW: MINING: SOLVED: prevBlk[%s]: proof[%d]", lastHash, proof)
			return proof, nil
		}

		proof++
	}
}

// =============================================================================

// proofPrefix builds the fixed part of a proof guess: the canonical encoding
// of the transactions followed by the parent hash.
func proofPrefix(trans []Transaction, lastHash string) ([]byte, error) {
	data, err := json.Marshal(CloneTransactions(trans))
	if err != nil {
		return nil, err
	}

	return append(data, lastHash...), nil
}

// isHashSolved appends the proof to the guess prefix and checks the digest
// complies with the POW rules.
func isHashSolved(prefix []byte, proof uint64) bool {
	guess := strconv.AppendUint(prefix[:len(prefix):len(prefix)], proof, 10)
	hash := signature.HashBytes(guess)

	return strings.HasPrefix(hash, difficultyPrefix)
}
