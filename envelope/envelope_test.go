package envelope

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"testing"

	"github.com/keycustody/registration-backend/interfaces"
	"github.com/keycustody/registration-backend/kdf"
	"github.com/stretchr/testify/require"
)

const testIV = "000102030405060708090a0b0c0d0e0f"

func TestSealOpenRoundTrip(t *testing.T) {
	sealer, err := NewSealer(testIV)
	require.NoError(t, err)

	key := kdf.CipherKey("alice", 1234, "")

	env, err := sealer.Seal(key)
	require.NoError(t, err)
	require.True(t, env.Valid())

	pair, err := sealer.Open(env, key)
	require.NoError(t, err)
	require.NotEmpty(t, pair.PublicKey)
	require.NotEmpty(t, pair.PrivateKey)

	// The payload must carry parseable PEM keys that belong together.
	pubBlock, _ := pem.Decode([]byte(pair.PublicKey))
	require.NotNil(t, pubBlock)
	pubKey, err := x509.ParsePKIXPublicKey(pubBlock.Bytes)
	require.NoError(t, err)

	privBlock, _ := pem.Decode([]byte(pair.PrivateKey))
	require.NotNil(t, privBlock)
	privAny, err := x509.ParsePKCS8PrivateKey(privBlock.Bytes)
	require.NoError(t, err)

	privKey, ok := privAny.(*ecdsa.PrivateKey)
	require.True(t, ok)
	require.Equal(t, pubKey, &privKey.PublicKey)
}

func TestSealProducesIndependentKeyPairs(t *testing.T) {
	sealer, err := NewSealer(testIV)
	require.NoError(t, err)

	key := kdf.CipherKey("alice", 1234, "")

	first, err := sealer.Seal(key)
	require.NoError(t, err)
	second, err := sealer.Seal(key)
	require.NoError(t, err)

	// Fresh randomness per call, so the payloads differ even under the
	// same key and IV.
	require.NotEqual(t, first, second)

	firstPair, err := sealer.Open(first, key)
	require.NoError(t, err)
	secondPair, err := sealer.Open(second, key)
	require.NoError(t, err)
	require.NotEqual(t, firstPair.PrivateKey, secondPair.PrivateKey)
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	sealer, err := NewSealer(testIV)
	require.NoError(t, err)

	env, err := sealer.Seal(kdf.CipherKey("alice", 1234, ""))
	require.NoError(t, err)

	pair, err := sealer.Open(env, kdf.CipherKey("alice", 4321, ""))
	require.Error(t, err)
	require.Nil(t, pair)
}

func TestOpenCorruptedEnvelope(t *testing.T) {
	sealer, err := NewSealer(testIV)
	require.NoError(t, err)

	key := kdf.CipherKey("alice", 1234, "")
	env, err := sealer.Seal(key)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		envelope string
	}{
		{
			name:     "not hex",
			envelope: "zz" + string(env)[2:],
		},
		{
			name:     "truncated to partial block",
			envelope: string(env)[:len(env)-2],
		},
		{
			name:     "empty",
			envelope: "",
		},
		{
			name:     "flipped ciphertext bytes",
			envelope: flipLastBlock(t, string(env)),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pair, err := sealer.Open(interfaces.CredentialEnvelope(tc.envelope), key)
			require.Error(t, err)
			require.Nil(t, pair)
		})
	}
}

func TestNewSealerRejectsBadIV(t *testing.T) {
	_, err := NewSealer("not-hex")
	require.Error(t, err)

	_, err = NewSealer("0011223344")
	require.Error(t, err)
}

func flipLastBlock(t *testing.T, envHex string) string {
	t.Helper()
	raw, err := hex.DecodeString(envHex)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	return hex.EncodeToString(raw)
}
