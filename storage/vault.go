package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/keycustody/registration-backend/interfaces"
)

// VaultGateway implements a storage gateway using HashiCorp Vault's KV
// v2 secrets engine. Each registration record is a secret keyed by its
// storage key under the configured mount and path.
type VaultGateway struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultGateway creates a Vault storage gateway with token
// authentication.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "custody")
//   - token: Vault token
//   - log: structured logger
func NewVaultGateway(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultGateway, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultGateway{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(address, "https://"), mountPath, dataPath),
	}, nil
}

// Lookup retrieves a record from Vault by its storage key.
func (g *VaultGateway) Lookup(ctx context.Context, key interfaces.DerivedKey) (*interfaces.RegistrationRecord, error) {
	start := time.Now()
	path := g.secretPath(key)

	secret, err := g.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		g.log.Error("Failed to read from Vault",
			slog.String("path", path),
			slog.String("storageKey", key.Hex()),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrGatewayUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		g.log.Debug("Record not found in Vault",
			slog.String("path", path),
			slog.String("storageKey", key.Hex()))
		return nil, interfaces.ErrRecordNotFound
	}

	// KV v2 wraps the payload in a "data" map
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	credentials, ok := data["credentials"].(string)
	if !ok {
		return nil, fmt.Errorf("credentials key not found in Vault data")
	}

	g.log.Debug("Fetched registration record from Vault",
		slog.String("storageKey", key.Hex()),
		slog.Duration("duration", time.Since(start)))

	return &interfaces.RegistrationRecord{
		ID:          key.Hex(),
		Credentials: credentials,
	}, nil
}

// Insert persists a new record. The write uses the KV v2 check-and-set
// option with cas=0, which makes Vault reject the write when a version of
// the secret already exists.
func (g *VaultGateway) Insert(ctx context.Context, key interfaces.DerivedKey, env interfaces.CredentialEnvelope) (interfaces.RecordID, error) {
	path := g.secretPath(key)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"id":          key.Hex(),
			"credentials": string(env),
		},
		"options": map[string]interface{}{
			"cas": 0,
		},
	}

	_, err := g.client.Logical().WriteWithContext(ctx, path, secretData)
	if err != nil {
		if strings.Contains(err.Error(), "check-and-set") {
			return "", interfaces.ErrDuplicateRecord
		}
		g.log.Error("Failed to write to Vault",
			slog.String("path", path),
			slog.String("storageKey", key.Hex()),
			"err", err)
		return "", fmt.Errorf("%w: %v", interfaces.ErrGatewayUnavailable, err)
	}

	g.log.Debug("Stored registration record in Vault",
		slog.String("path", path),
		slog.String("storageKey", key.Hex()))

	return interfaces.RecordID(path), nil
}

// Available checks if the Vault gateway is accessible via the health
// endpoint.
func (g *VaultGateway) Available(ctx context.Context) bool {
	health, err := g.client.Sys().HealthWithContext(ctx)
	if err != nil {
		g.log.Debug("Vault gateway unavailable", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// Name returns a unique identifier for this gateway.
func (g *VaultGateway) Name() string {
	return fmt.Sprintf("vault-%s", g.dataPath)
}

// LocationURI returns the URI that identifies this gateway.
func (g *VaultGateway) LocationURI() string {
	return g.locationURI
}

// secretPath generates the KV v2 data path for a storage key.
func (g *VaultGateway) secretPath(key interfaces.DerivedKey) string {
	return fmt.Sprintf("%s/data/%s/%s", g.mountPath, g.dataPath, key.Hex())
}
