package database

import (
	"fmt"
	"math"
	"strconv"
)

// MiningSender is the sentinel sender used for reward transactions. Reward
// transactions are never signed.
const MiningSender = "MINING"

// =============================================================================

// Transaction is the value transfer between two parties. The field order of
// this type is the canonical encoding order: sender, recipient, signature,
// amount. Do not reorder the fields.
type Transaction struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Signature string  `json:"signature"`
	Amount    float64 `json:"amount"`
}

// NewTransaction constructs a new transaction.
func NewTransaction(sender string, recipient string, signature string, amount float64) Transaction {
	return Transaction{
		Sender:    sender,
		Recipient: recipient,
		Signature: signature,
		Amount:    amount,
	}
}

// NewRewardTransaction constructs the unsigned transaction crediting a miner.
func NewRewardTransaction(recipient string, reward float64) Transaction {
	return Transaction{
		Sender:    MiningSender,
		Recipient: recipient,
		Signature: "",
		Amount:    reward,
	}
}

// IsReward reports whether this is a mining reward transaction.
func (tx Transaction) IsReward() bool {
	return tx.Sender == MiningSender
}

// Equals reports whether the two transactions match field for field.
func (tx Transaction) Equals(otherTx Transaction) bool {
	return tx == otherTx
}

// ValidAmount reports whether the amount is a finite non-negative number.
func (tx Transaction) ValidAmount() bool {
	return tx.Amount >= 0 && !math.IsInf(tx.Amount, 1)
}

// Message returns the deterministic data that is signed by the sender.
func (tx Transaction) Message() []byte {
	return SigningMessage(tx.Sender, tx.Recipient, tx.Amount)
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s->%s:%s", short(tx.Sender), short(tx.Recipient), FormatAmount(tx.Amount))
}

// =============================================================================

// SigningMessage builds the message a sender signs for a transfer.
func SigningMessage(sender string, recipient string, amount float64) []byte {
	return []byte(sender + recipient + FormatAmount(amount))
}

// FormatAmount returns the shortest decimal form of the amount.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// CloneTransactions returns an independent copy of the transactions. A nil
// input returns an empty, non-nil slice so encodings render [] and not null.
func CloneTransactions(trans []Transaction) []Transaction {
	cpy := make([]Transaction, len(trans))
	copy(cpy, trans)
	return cpy
}

// short trims long identities for log output.
func short(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10]
}
