package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/keycustody/registration-backend/interfaces"
)

var (
	// ErrMalformedEnvelope is returned when an envelope is not valid hex
	// or its ciphertext is not block-aligned.
	ErrMalformedEnvelope = errors.New("malformed credential envelope")

	// ErrDecryptionFailed is returned when an envelope cannot be opened,
	// whether from a wrong cipher key, corrupted ciphertext, invalid
	// padding, or an undecodable payload. The cases are deliberately not
	// distinguished.
	ErrDecryptionFailed = errors.New("failed to decrypt credential envelope")
)

// KeyPair is the plaintext payload of a credential envelope: a freshly
// generated ECDSA key-pair in PEM wire encodings.
type KeyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// Sealer creates and opens credential envelopes under derived cipher
// keys. Encryption is AES-256-CBC with PKCS#7 padding and a process-wide
// initialization vector supplied at construction.
//
// The single fixed IV across all envelopes is a known weakness of the
// original scheme, preserved here for wire compatibility with previously
// stored envelopes. See the package documentation before reusing this
// construction elsewhere.
type Sealer struct {
	iv []byte
}

// NewSealer creates a sealer from a hex-encoded 16-byte IV.
func NewSealer(ivHex string) (*Sealer, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode envelope IV: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("envelope IV must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &Sealer{iv: iv}, nil
}

// Seal generates a fresh ECDSA P-256 key-pair, serializes it as JSON with
// PEM encodings, and encrypts the serialization under the given cipher
// key. Each call consumes secure randomness and returns an independent
// key-pair.
func (s *Sealer) Seal(key interfaces.DerivedKey) (interfaces.CredentialEnvelope, error) {
	pair, err := generateKeyPair()
	if err != nil {
		return "", fmt.Errorf("failed to generate key-pair: %w", err)
	}

	plaintext, err := json.Marshal(pair)
	if err != nil {
		return "", fmt.Errorf("failed to serialize key-pair: %w", err)
	}

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, s.iv).CryptBlocks(ciphertext, padded)

	return interfaces.CredentialEnvelope(hex.EncodeToString(ciphertext)), nil
}

// Open decrypts an envelope under the given cipher key and decodes the
// key-pair payload. It returns ErrDecryptionFailed on a wrong key or
// corrupted ciphertext; callers in read paths translate any error into an
// absence value, so a wrong pin is indistinguishable from a corrupted
// record.
func (s *Sealer) Open(env interfaces.CredentialEnvelope, key interfaces.DerivedKey) (*KeyPair, error) {
	ciphertext, err := env.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrMalformedEnvelope
	}

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, s.iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpadPKCS7(plaintext, aes.BlockSize)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	var pair KeyPair
	if err := json.Unmarshal(unpadded, &pair); err != nil {
		return nil, ErrDecryptionFailed
	}
	if pair.PublicKey == "" || pair.PrivateKey == "" {
		return nil, ErrDecryptionFailed
	}

	return &pair, nil
}

// generateKeyPair creates a new ECDSA P-256 key-pair and encodes it in
// the standard PEM wire formats (PKIX public key, PKCS#8 private key).
func generateKeyPair() (*KeyPair, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})

	return &KeyPair{
		PublicKey:  string(pubPEM),
		PrivateKey: string(privPEM),
	}, nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.New("invalid padding length")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("invalid padding byte")
		}
	}
	return data[:len(data)-padLen], nil
}
