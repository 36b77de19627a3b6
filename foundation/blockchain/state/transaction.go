package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/balance"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction for inclusion in the mempool. The
// signature must verify and the sender must be able to cover the amount.
// Transactions that did not arrive from a peer are shared with every known
// peer. If a peer declines the transaction ErrPeerDeclined is returned even
// though the transaction stays in the local mempool.
func (s *State) SubmitTransaction(ctx context.Context, tx database.Transaction, isRelay bool) error {
	s.evHandler("state: SubmitTransaction: started: tx[%s]: relay[%t]", tx, isRelay)
	defer s.evHandler("state: SubmitTransaction: completed")

	if err := s.admitTransaction(tx); err != nil {
		return err
	}

	s.txEvent(tx)
	s.Worker.SignalStartMining()

	if isRelay {
		return nil
	}

	return s.NetSendTxToPeers(ctx, tx)
}

// SubmitLocal signs a transfer from the node identity and submits it.
func (s *State) SubmitLocal(ctx context.Context, recipient string, amount float64) (database.Transaction, error) {
	id := s.signer()
	if id == nil {
		return database.Transaction{}, ErrMiningUnavailable
	}

	sender := id.PublicKey()
	sig, err := id.Sign(sender, recipient, amount)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("sign: %w", err)
	}

	tx := database.NewTransaction(sender, recipient, sig, amount)
	if err := s.SubmitTransaction(ctx, tx, false); err != nil {
		return tx, err
	}

	return tx, nil
}

// VerifyPool reports whether every pooled transaction carries a valid
// signature. Funds are not checked again.
func (s *State) VerifyPool() bool {
	for _, tx := range s.mempool.Copy() {
		if !s.verifier.Verify(tx) {
			s.evHandler("state: VerifyPool: invalid signature: tx[%s]", tx)
			return false
		}
	}

	return true
}

// =============================================================================

// admitTransaction validates the transaction against the current chain and
// mempool and adds it to the mempool.
func (s *State) admitTransaction(tx database.Transaction) error {
	if !tx.ValidAmount() {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, tx.Amount)
	}

	if tx.IsReward() {
		return ErrRewardSender
	}

	if !s.verifier.Verify(tx) {
		return ErrInvalidSignature
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	funds := balance.Calculate(tx.Sender, s.chain, s.mempool.Copy())
	if funds < tx.Amount {
		return fmt.Errorf("%w: balance[%v]: amount[%v]", ErrInsufficientFunds, funds, tx.Amount)
	}

	s.mempool.Add(tx)
	s.persist()

	return nil
}
