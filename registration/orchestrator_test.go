package registration

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/keycustody/registration-backend/envelope"
	"github.com/keycustody/registration-backend/interfaces"
	"github.com/keycustody/registration-backend/kdf"
	"github.com/keycustody/registration-backend/storage"
	"github.com/stretchr/testify/require"
)

const testIV = "000102030405060708090a0b0c0d0e0f"

func newTestOrchestrator(t *testing.T) (*Orchestrator, *storage.MemoryGateway) {
	t.Helper()
	sealer, err := envelope.NewSealer(testIV)
	require.NoError(t, err)
	gateway := storage.NewMemoryGateway(slog.Default())
	return New(gateway, sealer, slog.Default()), gateway
}

// faultyGateway wraps a real gateway and injects failures per operation.
type faultyGateway struct {
	inner       interfaces.StorageGateway
	failLookup  bool
	failInserts map[string]bool // storage key hex -> fail
}

func (f *faultyGateway) Lookup(ctx context.Context, key interfaces.DerivedKey) (*interfaces.RegistrationRecord, error) {
	if f.failLookup {
		return nil, errors.New("lookup exploded")
	}
	return f.inner.Lookup(ctx, key)
}

func (f *faultyGateway) Insert(ctx context.Context, key interfaces.DerivedKey, env interfaces.CredentialEnvelope) (interfaces.RecordID, error) {
	if f.failInserts[key.Hex()] {
		return "", errors.New("insert exploded")
	}
	return f.inner.Insert(ctx, key, env)
}

func (f *faultyGateway) Available(ctx context.Context) bool { return true }
func (f *faultyGateway) Name() string                       { return "faulty" }
func (f *faultyGateway) LocationURI() string                { return "mem://faulty" }

func TestRegisterFreshIdentityNoApp(t *testing.T) {
	orch, gateway := newTestOrchestrator(t)
	ctx := context.Background()

	result := orch.Start(ctx, "alice", "", 1234)
	require.True(t, result.Success)
	require.Empty(t, result.Error)

	// Exactly one record, persisted at HASH("alice").
	require.Equal(t, 1, gateway.Len())
	record, err := gateway.Lookup(ctx, kdf.StorageKey("alice", ""))
	require.NoError(t, err)
	require.Equal(t, kdf.StorageKey("alice", "").Hex(), record.ID)
	require.True(t, record.Envelope().Valid())
}

func TestRegisterAlreadyRegisteredNoApp(t *testing.T) {
	orch, gateway := newTestOrchestrator(t)
	ctx := context.Background()

	require.True(t, orch.Start(ctx, "alice", "", 1234).Success)

	result := orch.Start(ctx, "alice", "", 1234)
	require.False(t, result.Success)
	require.Equal(t, MsgAlreadyRegistered, result.Error)
	require.Equal(t, 1, gateway.Len())
}

func TestRegisterNewAppScopeForRegisteredIdentity(t *testing.T) {
	orch, gateway := newTestOrchestrator(t)
	ctx := context.Background()

	require.True(t, orch.Start(ctx, "alice", "", 1234).Success)

	result := orch.Start(ctx, "alice", "app1", 1234)
	require.True(t, result.Success)

	// Second record persisted at HASH("alice%app1"); top-level untouched.
	require.Equal(t, 2, gateway.Len())
	record, err := gateway.Lookup(ctx, kdf.StorageKey("alice", "app1"))
	require.NoError(t, err)
	require.Equal(t, kdf.StorageKey("alice", "app1").Hex(), record.ID)
}

func TestRegisterLookupFailure(t *testing.T) {
	sealer, err := envelope.NewSealer(testIV)
	require.NoError(t, err)
	gateway := &faultyGateway{
		inner:      storage.NewMemoryGateway(slog.Default()),
		failLookup: true,
	}
	orch := New(gateway, sealer, slog.Default())

	result := orch.Start(context.Background(), "alice", "", 1234)
	require.False(t, result.Success)
	require.Equal(t, MsgLookupFailed, result.Error)
}

func TestRegisterFreshIdentityWithAppPersistsBothRecords(t *testing.T) {
	orch, gateway := newTestOrchestrator(t)
	ctx := context.Background()

	result := orch.Start(ctx, "alice", "app1", 1234)
	require.True(t, result.Success)

	require.Equal(t, 2, gateway.Len())
	_, err := gateway.Lookup(ctx, kdf.StorageKey("alice", ""))
	require.NoError(t, err)
	_, err = gateway.Lookup(ctx, kdf.StorageKey("alice", "app1"))
	require.NoError(t, err)
}

func TestRegisterTopLevelInsertFailure(t *testing.T) {
	sealer, err := envelope.NewSealer(testIV)
	require.NoError(t, err)
	inner := storage.NewMemoryGateway(slog.Default())
	gateway := &faultyGateway{
		inner: inner,
		failInserts: map[string]bool{
			kdf.StorageKey("alice", "").Hex(): true,
		},
	}
	orch := New(gateway, sealer, slog.Default())

	result := orch.Start(context.Background(), "alice", "", 1234)
	require.False(t, result.Success)
	require.Equal(t, MsgAccountInsertFailed, result.Error)
	require.Equal(t, 0, inner.Len())
}

func TestRegisterAppInsertFailureKeepsTopLevelRecord(t *testing.T) {
	sealer, err := envelope.NewSealer(testIV)
	require.NoError(t, err)
	inner := storage.NewMemoryGateway(slog.Default())
	gateway := &faultyGateway{
		inner: inner,
		failInserts: map[string]bool{
			kdf.StorageKey("alice", "app1").Hex(): true,
		},
	}
	orch := New(gateway, sealer, slog.Default())
	ctx := context.Background()

	result := orch.Start(ctx, "alice", "app1", 1234)
	require.False(t, result.Success)
	require.Equal(t, MsgAppAccountInsertFailed, result.Error)

	// Partial failure is accepted, not rolled back: the top-level record
	// stays persisted while the run reports failure.
	require.Equal(t, 1, inner.Len())
	_, err = inner.Lookup(ctx, kdf.StorageKey("alice", ""))
	require.NoError(t, err)
}

func TestRegisterRejectsMissingID(t *testing.T) {
	orch, gateway := newTestOrchestrator(t)

	result := orch.Start(context.Background(), "", "app1", 1234)
	require.False(t, result.Success)
	require.Equal(t, MsgMissingID, result.Error)
	require.Equal(t, 0, gateway.Len())
}

func TestRecoverRoundTrip(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	require.True(t, orch.Start(ctx, "alice", "", 1234).Success)

	pair, err := orch.Recover(ctx, "alice", "", 1234)
	require.NoError(t, err)
	require.NotNil(t, pair)
	require.NotEmpty(t, pair.PublicKey)
	require.NotEmpty(t, pair.PrivateKey)
}

func TestRecoverAbsenceSemantics(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	require.True(t, orch.Start(ctx, "alice", "", 1234).Success)

	// Wrong pin and unknown identity are indistinguishable: both come
	// back as absence with no error.
	pair, err := orch.Recover(ctx, "alice", "", 4321)
	require.NoError(t, err)
	require.Nil(t, pair)

	pair, err = orch.Recover(ctx, "bob", "", 1234)
	require.NoError(t, err)
	require.Nil(t, pair)
}

func TestRecoverAppScopedUsesOwnKeys(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	require.True(t, orch.Start(ctx, "alice", "app1", 1234).Success)

	topLevel, err := orch.Recover(ctx, "alice", "", 1234)
	require.NoError(t, err)
	require.NotNil(t, topLevel)

	appScoped, err := orch.Recover(ctx, "alice", "app1", 1234)
	require.NoError(t, err)
	require.NotNil(t, appScoped)

	// Independent key-pairs per scope.
	require.NotEqual(t, topLevel.PrivateKey, appScoped.PrivateKey)
}
