// Package balance derives account balances from the chain and the mempool.
// Nothing is cached, every call walks the full history.
package balance

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Calculate returns the spendable balance for the participant. Committed
// incoming amounts are credited. Committed and pending outgoing amounts are
// debited. Pending incoming amounts are not credited until they are mined.
func Calculate(participant string, chain []database.Block, pool []database.Transaction) float64 {
	var received, sent float64

	for _, block := range chain {
		for _, tx := range block.Transactions {
			if tx.Recipient == participant {
				received += tx.Amount
			}
			if tx.Sender == participant {
				sent += tx.Amount
			}
		}
	}

	for _, tx := range pool {
		if tx.Sender == participant {
			sent += tx.Amount
		}
	}

	return received - sent
}

// Sheet returns the balance of every participant that appears on the chain
// or in the mempool. The mining sentinel is not a participant.
func Sheet(chain []database.Block, pool []database.Transaction) map[string]float64 {
	sheet := make(map[string]float64)

	for _, block := range chain {
		for _, tx := range block.Transactions {
			sheet[tx.Recipient] += tx.Amount
			if !tx.IsReward() {
				sheet[tx.Sender] -= tx.Amount
			}
		}
	}

	for _, tx := range pool {
		if _, exists := sheet[tx.Recipient]; !exists {
			sheet[tx.Recipient] = 0
		}
		sheet[tx.Sender] -= tx.Amount
	}

	return sheet
}
