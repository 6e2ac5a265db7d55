package kdf

import (
	"crypto/sha256"
	"testing"

	"github.com/keycustody/registration-backend/interfaces"
	"github.com/stretchr/testify/require"
)

func TestStorageKeyDeterministic(t *testing.T) {
	first := StorageKey("alice", "")
	for i := 0; i < 10; i++ {
		require.True(t, first.Equal(StorageKey("alice", "")))
	}
}

func TestStorageKeyFormulas(t *testing.T) {
	testCases := []struct {
		name     string
		id       string
		appID    string
		material string
	}{
		{
			name:     "top-level",
			id:       "alice",
			appID:    "",
			material: "alice",
		},
		{
			name:     "app-scoped",
			id:       "alice",
			appID:    "app1",
			material: "alice%app1",
		},
		{
			name:     "id containing separator-like characters",
			id:       "al%ce",
			appID:    "",
			material: "al%ce",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expected := interfaces.DerivedKey(sha256.Sum256([]byte(tc.material)))
			require.True(t, expected.Equal(StorageKey(tc.id, tc.appID)))
		})
	}
}

func TestStorageKeyNamespacesDisjoint(t *testing.T) {
	require.False(t, StorageKey("alice", "").Equal(StorageKey("alice", "app1")))
	require.False(t, StorageKey("alice", "app1").Equal(StorageKey("alice", "app2")))
	require.False(t, StorageKey("alice", "").Equal(StorageKey("bob", "")))
}

func TestCipherKeyFormulas(t *testing.T) {
	testCases := []struct {
		name     string
		id       string
		pin      uint32
		appID    string
		material string
	}{
		{
			name:     "top-level",
			id:       "alice",
			pin:      1234,
			appID:    "",
			material: "alice$1234",
		},
		{
			name:     "app-scoped",
			id:       "alice",
			pin:      1234,
			appID:    "app1",
			material: "alice$1234$app1",
		},
		{
			name:     "pin rendered unpadded",
			id:       "alice",
			pin:      7,
			appID:    "",
			material: "alice$7",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expected := interfaces.DerivedKey(sha256.Sum256([]byte(tc.material)))
			require.True(t, expected.Equal(CipherKey(tc.id, tc.pin, tc.appID)))
		})
	}
}

func TestCipherKeyVariesWithPin(t *testing.T) {
	require.False(t, CipherKey("alice", 1234, "").Equal(CipherKey("alice", 4321, "")))
	require.False(t, CipherKey("alice", 1234, "app1").Equal(CipherKey("alice", 1234, "")))
}

func TestCipherKeyIndependentOfStorageKey(t *testing.T) {
	// Same identity, different derivations. This is the invariant that
	// lets the storage key be persisted while the cipher key stays secret.
	require.False(t, StorageKey("alice", "").Equal(CipherKey("alice", 1234, "")))
}
