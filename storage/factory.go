package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/keycustody/registration-backend/interfaces"
)

// Factory creates storage gateways from location URIs and aggregates
// multi-gateway configurations for replicated storage.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a factory instance that can create storage gateways.
func NewFactory(log *slog.Logger) *Factory {
	return &Factory{log: log}
}

// GatewayFor creates a storage gateway from a location URI.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - mem:// - In-process map, for tests and development
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - vault:// - HashiCorp Vault KV v2 secrets engine
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (f *Factory) GatewayFor(location interfaces.GatewayLocation) (interfaces.StorageGateway, error) {
	switch strings.ToLower(location.Scheme) {
	case "mem":
		return NewMemoryGateway(f.log), nil
	case "file":
		return f.createFileGateway(location)
	case "s3":
		return f.createS3Gateway(location)
	case "vault":
		return f.createVaultGateway(location)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiGateway creates a replicated gateway from multiple location
// URIs.
func (f *Factory) CreateMultiGateway(locations []interfaces.GatewayLocation) (interfaces.StorageGateway, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: no gateway locations provided", interfaces.ErrInvalidLocationURI)
	}

	gateways := make([]interfaces.StorageGateway, 0, len(locations))
	for _, location := range locations {
		gw, err := f.GatewayFor(location)
		if err != nil {
			return nil, fmt.Errorf("failed to create gateway for %s: %w", location, err)
		}
		gateways = append(gateways, gw)
	}

	if len(gateways) == 1 {
		return gateways[0], nil
	}
	return NewMultiGateway(gateways, f.log), nil
}

// createFileGateway creates a file gateway from a file:// URI.
// Format: file:///var/lib/custody/records/
func (f *Factory) createFileGateway(location interfaces.GatewayLocation) (interfaces.StorageGateway, error) {
	baseDir := location.Path
	if location.Host != "" {
		// Relative form: file://dir/path
		baseDir = location.Host + location.Path
	}
	if baseDir == "" {
		return nil, fmt.Errorf("%w: file URI missing path", interfaces.ErrInvalidLocationURI)
	}

	return NewFileGateway(baseDir, f.log)
}

// createS3Gateway creates an S3 gateway from an s3:// URI.
// Format: s3://[accessKey:secretKey@]bucket/prefix/?region=us-west-2[&endpoint=...]
func (f *Factory) createS3Gateway(location interfaces.GatewayLocation) (interfaces.StorageGateway, error) {
	bucket := location.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 URI missing bucket", interfaces.ErrInvalidLocationURI)
	}

	region := location.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if location.Auth != "" {
		parts := strings.SplitN(location.Auth, ":", 2)
		accessKey = parts[0]
		if len(parts) == 2 {
			secretKey = parts[1]
		}
	}

	prefix := strings.TrimPrefix(location.Path, "/")
	return NewS3Gateway(bucket, prefix, region, location.GetParam("endpoint"), accessKey, secretKey, f.log)
}

// createVaultGateway creates a Vault gateway from a vault:// URI.
// Format: vault://host:port/mount/path[?token=...&scheme=http]
func (f *Factory) createVaultGateway(location interfaces.GatewayLocation) (interfaces.StorageGateway, error) {
	if location.Host == "" {
		return nil, fmt.Errorf("%w: vault URI missing host", interfaces.ErrInvalidLocationURI)
	}

	pathParts := strings.SplitN(strings.Trim(location.Path, "/"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return nil, fmt.Errorf("%w: vault URI path must be /mount/path", interfaces.ErrInvalidLocationURI)
	}

	scheme := location.GetParam("scheme")
	if scheme == "" {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, location.Host)

	return NewVaultGateway(address, pathParts[0], pathParts[1], location.GetParam("token"), f.log)
}
