package private

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/validate"
)

// RelayTx is a transaction relayed by a peer. Zero is a valid amount.
type RelayTx struct {
	Sender    string   `json:"sender" validate:"required"`
	Recipient string   `json:"recipient" validate:"required"`
	Signature string   `json:"signature" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required,gte=0"`
}

// Validate checks the data in the model is considered clean.
func (rtx RelayTx) Validate() error {
	return validate.Check(rtx)
}

// ProposedBlock is the body of a block broadcast.
type ProposedBlock struct {
	Block *database.Block `json:"block" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (pb ProposedBlock) Validate() error {
	return validate.Check(pb)
}

type relayed struct {
	Message     string               `json:"message"`
	Transaction database.Transaction `json:"transaction"`
}

type proposed struct {
	Message string         `json:"message"`
	Block   database.Block `json:"block"`
}
