package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/keycustody/registration-backend/interfaces"
)

// MemoryGateway implements a storage gateway backed by an in-process map.
// Intended for tests and local development; records do not survive the
// process.
type MemoryGateway struct {
	mu      sync.RWMutex
	records map[interfaces.DerivedKey]memoryRecord
	log     *slog.Logger
}

type memoryRecord struct {
	id     interfaces.RecordID
	record interfaces.RegistrationRecord
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway(log *slog.Logger) *MemoryGateway {
	return &MemoryGateway{
		records: make(map[interfaces.DerivedKey]memoryRecord),
		log:     log,
	}
}

// Lookup retrieves the record stored under the given storage key.
func (g *MemoryGateway) Lookup(ctx context.Context, key interfaces.DerivedKey) (*interfaces.RegistrationRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stored, ok := g.records[key]
	if !ok {
		return nil, interfaces.ErrRecordNotFound
	}

	record := stored.record
	return &record, nil
}

// Insert persists a new record. The map write is atomic under the mutex,
// so duplicate first registrations racing each other resolve to exactly
// one winner.
func (g *MemoryGateway) Insert(ctx context.Context, key interfaces.DerivedKey, env interfaces.CredentialEnvelope) (interfaces.RecordID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.records[key]; ok {
		return "", interfaces.ErrDuplicateRecord
	}

	id := interfaces.RecordID(uuid.NewString())
	g.records[key] = memoryRecord{
		id: id,
		record: interfaces.RegistrationRecord{
			ID:          key.Hex(),
			Credentials: string(env),
		},
	}

	g.log.Debug("Stored registration record in memory",
		slog.String("storageKey", key.Hex()),
		slog.String("recordID", string(id)))

	return id, nil
}

// Available always reports true for the in-memory gateway.
func (g *MemoryGateway) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this gateway.
func (g *MemoryGateway) Name() string {
	return "mem"
}

// LocationURI returns the URI that identifies this gateway.
func (g *MemoryGateway) LocationURI() string {
	return "mem://"
}

// Len reports the number of stored records. Test helper.
func (g *MemoryGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}
