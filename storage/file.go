package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/keycustody/registration-backend/interfaces"
)

// FileGateway implements a storage gateway using the local file system.
// Each registration record is stored as a JSON file named after its
// storage key under the base directory.
type FileGateway struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileGateway creates a file storage gateway using the specified base
// directory, creating it if necessary.
func NewFileGateway(baseDir string, log *slog.Logger) (*FileGateway, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileGateway{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Lookup retrieves a record from the file system by its storage key.
// Returns ErrRecordNotFound if the file doesn't exist.
func (g *FileGateway) Lookup(ctx context.Context, key interfaces.DerivedKey) (*interfaces.RegistrationRecord, error) {
	filePath := g.recordPath(key)

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record interfaces.RegistrationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record file: %w", err)
	}

	g.log.Debug("Fetched registration record from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return &record, nil
}

// Insert persists a new record file. The file is created with O_EXCL so a
// concurrent insert for the same storage key fails with
// ErrDuplicateRecord instead of overwriting.
func (g *FileGateway) Insert(ctx context.Context, key interfaces.DerivedKey, env interfaces.CredentialEnvelope) (interfaces.RecordID, error) {
	record := interfaces.RegistrationRecord{
		ID:          key.Hex(),
		Credentials: string(env),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	filePath := g.recordPath(key)
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return "", interfaces.ErrDuplicateRecord
	}
	if err != nil {
		return "", fmt.Errorf("failed to create record file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write record file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close record file: %w", err)
	}

	g.log.Debug("Stored registration record in file",
		slog.String("path", filePath),
		slog.String("storageKey", key.Hex()))

	return interfaces.RecordID(filePath), nil
}

// Available checks if the file gateway is accessible by verifying the
// base directory exists.
func (g *FileGateway) Available(ctx context.Context) bool {
	_, err := os.Stat(g.baseDir)
	if err != nil {
		g.log.Debug("File gateway unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this gateway.
func (g *FileGateway) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(g.baseDir))
}

// LocationURI returns the URI that identifies this gateway.
func (g *FileGateway) LocationURI() string {
	return g.locationURI
}

// recordPath generates the file path for a storage key.
func (g *FileGateway) recordPath(key interfaces.DerivedKey) string {
	return filepath.Join(g.baseDir, key.Hex()+".json")
}
