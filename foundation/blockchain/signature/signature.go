// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// powchainStamp is mixed into every signed digest so signatures produced
// here can never be replayed as a plain Ethereum or Bitcoin signature.
const powchainStamp = "\x19Powchain Signed Message:\n32"

// ErrInvalidSignature is returned when a signature does not match the data
// and public key it is checked against.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns a unique string for the value. The value is marshaled to JSON
// so the field order of the provided type decides the encoding.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}

	return HashBytes(data)
}

// HashBytes returns the lowercase hex encoded SHA-256 digest of the data.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return common.Bytes2Hex(hash[:])
}

// PublicKeyHex returns the hex encoded compressed form of the public key.
// This is the value used as an identity on the ledger.
func PublicKeyHex(pk *ecdsa.PublicKey) string {
	return common.Bytes2Hex(crypto.CompressPubkey(pk))
}

// Sign uses the specified private key to sign the message and returns
// the [R|S] signature as a hex string.
func Sign(message []byte, privateKey *ecdsa.PrivateKey) (string, error) {
	digest := stamp(message)

	// Sign the digest with the private key to produce a signature.
	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the digest and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.CompressPubkey(&privateKey.PublicKey), digest, rs) {
		return "", ErrInvalidSignature
	}

	return common.Bytes2Hex(rs), nil
}

// Verify checks the hex encoded [R|S] signature was produced for the message
// by the private key that belongs to the hex encoded public key.
func Verify(publicKeyHex string, message []byte, sigHex string) error {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return errors.New("invalid public key encoding")
	}

	if _, err := crypto.DecompressPubkey(pub); err != nil {
		return errors.New("invalid public key")
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != crypto.RecoveryIDOffset {
		return errors.New("invalid signature encoding")
	}

	if !crypto.VerifySignature(pub, stamp(message), sig) {
		return ErrInvalidSignature
	}

	return nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the message with
// the powchain stamp embedded into the final hash.
func stamp(message []byte) []byte {

	// Hash the message into a 32 byte array. This will provide
	// a data length consistency with all data.
	msgHash := crypto.Keccak256(message)

	// Hash the stamp and msgHash together in a final 32 byte array
	// that represents the message.
	return crypto.Keccak256([]byte(powchainStamp), msgHash)
}
