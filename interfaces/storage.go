package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrRecordNotFound is returned when no registration record exists for
	// the requested storage key.
	ErrRecordNotFound = errors.New("registration record not found")

	// ErrDuplicateRecord is returned when inserting a record for a storage
	// key that already holds one. Backends enforce this as the uniqueness
	// backstop for concurrent first registrations.
	ErrDuplicateRecord = errors.New("registration record already exists")

	// ErrGatewayUnavailable is returned when a storage gateway is not
	// accessible. This could be due to network issues, authentication
	// failures, or service outages.
	ErrGatewayUnavailable = errors.New("storage gateway unavailable")

	// ErrInvalidLocationURI is returned when a gateway location URI is
	// malformed or unsupported. URIs follow the format:
	// [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid gateway location URI")
)

// StorageGateway provides key-addressed persistence for registration
// records. The core requires only Lookup and Insert with read-your-write
// consistency for a single key; no cross-key transactional guarantee is
// assumed.
type StorageGateway interface {
	// Lookup retrieves the record stored under the given storage key.
	// Returns ErrRecordNotFound when absent.
	Lookup(ctx context.Context, key DerivedKey) (*RegistrationRecord, error)

	// Insert persists a new record under the given storage key and returns
	// a backend-assigned record ID. Returns ErrDuplicateRecord if the key
	// is already taken.
	Insert(ctx context.Context, key DerivedKey, envelope CredentialEnvelope) (RecordID, error)

	// Available checks if the gateway is accessible.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this gateway.
	LocationURI() string
}

// GatewayFactory creates storage gateways from location URIs.
type GatewayFactory interface {
	// GatewayFor creates a gateway from a URI.
	// Supports mem://, file://, s3://, vault://
	GatewayFor(location GatewayLocation) (StorageGateway, error)

	// CreateMultiGateway creates a replicated gateway over several
	// locations.
	CreateMultiGateway(locations []GatewayLocation) (StorageGateway, error)
}

// GatewayLocation represents a parsed storage gateway URI.
type GatewayLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewGatewayLocation creates a gateway location from a URI string with
// validation.
func NewGatewayLocation(uri string) (GatewayLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return GatewayLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := parsed.Scheme
	switch scheme {
	case "mem", "file", "s3", "vault":
		// Valid scheme
	default:
		return GatewayLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return GatewayLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc GatewayLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc GatewayLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}
