// Package interfaces defines the core types and contracts for the custodial
// key registration system. It provides the boundary between components
// without implementation details.
package interfaces

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// DerivedKey is a 32-byte SHA-256 derivation output. It serves both as a
// storage key (identifying a registration record) and as a cipher key
// (symmetric key for the credential envelope), depending on which
// derivation produced it.
type DerivedKey [32]byte

// NewDerivedKeyFromBytes creates a derived key from a raw 32-byte slice.
func NewDerivedKeyFromBytes(source []byte) (DerivedKey, error) {
	if len(source) != 32 {
		return DerivedKey{}, errors.New("invalid DerivedKey conversion from bytes: incorrect length")
	}

	var key [32]byte
	copy(key[:], source)
	return DerivedKey(key), nil
}

// NewDerivedKeyFromHex parses a hex-encoded derived key.
func NewDerivedKeyFromHex(source string) (DerivedKey, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return DerivedKey{}, errors.New("invalid derived key length: hex string must be 64 characters")
	}

	keyBytes, err := hex.DecodeString(clean)
	if err != nil {
		return DerivedKey{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var key [32]byte
	copy(key[:], keyBytes)
	return DerivedKey(key), nil
}

// Hex returns the hex representation. This is the form persisted as a
// record identifier.
func (k DerivedKey) Hex() string {
	return hex.EncodeToString(k[:])
}

// Bytes returns the raw 32-byte key.
func (k DerivedKey) Bytes() []byte {
	return k[:]
}

// Equal compares two derived keys.
func (k DerivedKey) Equal(other DerivedKey) bool {
	return bytes.Equal(k[:], other[:])
}

// CredentialEnvelope is a hex-encoded ciphertext wrapping a generated
// key-pair's JSON serialization. Immutable once created.
type CredentialEnvelope string

// Valid reports whether the envelope is well-formed hex of non-zero,
// block-aligned length.
func (e CredentialEnvelope) Valid() bool {
	raw, err := hex.DecodeString(string(e))
	if err != nil {
		return false
	}
	return len(raw) > 0 && len(raw)%16 == 0
}

// Bytes decodes the envelope ciphertext.
func (e CredentialEnvelope) Bytes() ([]byte, error) {
	return hex.DecodeString(string(e))
}

// RecordID is an opaque backend-assigned identifier for a persisted
// registration record.
type RecordID string

// RegistrationRecord is the persisted registration tuple. ID is the
// storage key in hex; Credentials is the credential envelope in hex.
type RegistrationRecord struct {
	ID          string `json:"id"`
	Credentials string `json:"credentials"`
}

// Envelope returns the record's credentials as a typed envelope.
func (r RegistrationRecord) Envelope() CredentialEnvelope {
	return CredentialEnvelope(r.Credentials)
}
