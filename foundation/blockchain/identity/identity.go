// Package identity is the key holder for a participant of the ledger. It
// signs transfers and verifies the signatures of others. The signature scheme
// is secp256k1 and never leaks past this package and the signature package.
package identity

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Identity represents a participant that owns a private key.
type Identity struct {
	privateKey *ecdsa.PrivateKey
	publicKey  string
}

// New constructs an identity for the specified private key.
func New(privateKey *ecdsa.PrivateKey) *Identity {
	return &Identity{
		privateKey: privateKey,
		publicKey:  signature.PublicKeyHex(&privateKey.PublicKey),
	}
}

// Generate constructs an identity with a brand new private key.
func Generate() (*Identity, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return New(privateKey), nil
}

// Load reads the hex encoded private key file at the specified path.
func Load(path string) (*Identity, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key %q: %w", path, err)
	}

	return New(privateKey), nil
}

// Save writes the private key to the specified path, creating the folder
// when it doesn't exist.
func (id *Identity) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	return crypto.SaveECDSA(path, id.privateKey)
}

// PublicKey returns the public identifier used on the ledger.
func (id *Identity) PublicKey() string {
	return id.publicKey
}

// Sign signs the transfer of the amount from sender to recipient.
func (id *Identity) Sign(sender string, recipient string, amount float64) (string, error) {
	return signature.Sign(database.SigningMessage(sender, recipient, amount), id.privateKey)
}

// Verify implements the verifier capability for this identity.
func (id *Identity) Verify(tx database.Transaction) bool {
	return Verify(tx)
}

// =============================================================================

// Verifier provides signature checking without holding any key.
type Verifier struct{}

// Verify implements the verifier capability.
func (Verifier) Verify(tx database.Transaction) bool {
	return Verify(tx)
}

// Verify checks the transaction was signed by the public key encoded in the
// sender. Reward transactions are never signed and always pass.
func Verify(tx database.Transaction) bool {
	if tx.IsReward() {
		return true
	}

	return signature.Verify(tx.Sender, tx.Message(), tx.Signature) == nil
}
