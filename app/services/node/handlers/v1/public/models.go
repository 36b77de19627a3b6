package public

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/validate"
)

type wallet struct {
	PublicKey string  `json:"public_key"`
	Name      string  `json:"name"`
	Funds     float64 `json:"funds"`
}

type balance struct {
	Account string  `json:"account"`
	Name    string  `json:"name"`
	Funds   float64 `json:"funds"`
}

type tx struct {
	Sender        string  `json:"sender"`
	SenderName    string  `json:"sender_name"`
	Recipient     string  `json:"recipient"`
	RecipientName string  `json:"recipient_name"`
	Signature     string  `json:"signature"`
	Amount        float64 `json:"amount"`
}

type submitted struct {
	Message     string               `json:"message"`
	Transaction database.Transaction `json:"transaction"`
	Funds       float64              `json:"funds"`
}

type mined struct {
	Message string         `json:"message"`
	Block   database.Block `json:"block"`
	Funds   float64        `json:"funds"`
}

type resolved struct {
	Replaced bool             `json:"replaced"`
	Message  string           `json:"message"`
	Chain    []database.Block `json:"chain"`
}

type peers struct {
	Message  string   `json:"message,omitempty"`
	AllNodes []string `json:"all_nodes"`
}

// =============================================================================

// NewTx is a transfer the node signs with its own identity. The amount must
// be present, zero is a valid amount.
type NewTx struct {
	Recipient string   `json:"recipient" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required,gte=0"`
}

// Validate checks the data in the model is considered clean.
func (ntx NewTx) Validate() error {
	return validate.Check(ntx)
}

// SignedTx is a transfer signed outside of the node.
type SignedTx struct {
	Sender    string   `json:"sender" validate:"required"`
	Recipient string   `json:"recipient" validate:"required"`
	Signature string   `json:"signature" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required,gte=0"`
}

// Validate checks the data in the model is considered clean.
func (stx SignedTx) Validate() error {
	return validate.Check(stx)
}

// ToTransaction converts the model into a ledger transaction.
func (stx SignedTx) ToTransaction() database.Transaction {
	return database.NewTransaction(stx.Sender, stx.Recipient, stx.Signature, *stx.Amount)
}

// NewPeer names a node to add to the known peers.
type NewPeer struct {
	Node string `json:"node" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (np NewPeer) Validate() error {
	return validate.Check(np)
}
