package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/keycustody/registration-backend/interfaces"
)

// MultiGateway implements a replicated storage gateway over several
// others. Lookups fall through to the first gateway that has the record;
// inserts go to every available gateway and succeed when at least one
// write lands.
type MultiGateway struct {
	gateways []interfaces.StorageGateway
	log      *slog.Logger
}

// NewMultiGateway creates a replicated gateway with fallback.
func NewMultiGateway(gateways []interfaces.StorageGateway, log *slog.Logger) *MultiGateway {
	if log == nil {
		log = slog.Default()
	}
	return &MultiGateway{
		gateways: gateways,
		log:      log,
	}
}

// Lookup queries gateways in order and returns the first hit. A key is
// reported absent only when every available gateway reports it absent;
// any other failure makes the lookup fail, since a record missing from
// one replica may exist on the unreachable one.
func (m *MultiGateway) Lookup(ctx context.Context, key interfaces.DerivedKey) (*interfaces.RegistrationRecord, error) {
	start := time.Now()
	var errs []error

	for _, gw := range m.gateways {
		if !gw.Available(ctx) {
			m.log.Debug("Gateway unavailable",
				slog.String("gateway", gw.Name()),
				slog.String("storageKey", key.Hex()))
			errs = append(errs, fmt.Errorf("%s: %w", gw.Name(), interfaces.ErrGatewayUnavailable))
			continue
		}

		record, err := gw.Lookup(ctx, key)
		if err == nil {
			m.log.Debug("Fetched registration record",
				slog.String("gateway", gw.Name()),
				slog.String("storageKey", key.Hex()),
				slog.Duration("duration", time.Since(start)))
			return record, nil
		}
		if errors.Is(err, interfaces.ErrRecordNotFound) {
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", gw.Name(), err))
		m.log.Debug("Failed to lookup record",
			slog.String("gateway", gw.Name()),
			slog.String("storageKey", key.Hex()),
			"err", err)
	}

	if len(errs) == 0 {
		return nil, interfaces.ErrRecordNotFound
	}

	m.log.Error("Lookup failed across gateways",
		slog.String("storageKey", key.Hex()),
		slog.Int("failedGateways", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("lookup failed for %s: %v", key.Hex(), errs)
}

// Insert writes the record to all available gateways. A duplicate on any
// gateway rejects the insert as a whole; otherwise at least one
// successful write is required.
func (m *MultiGateway) Insert(ctx context.Context, key interfaces.DerivedKey, env interfaces.CredentialEnvelope) (interfaces.RecordID, error) {
	start := time.Now()
	var recordID interfaces.RecordID
	var success bool
	var errs []error

	for _, gw := range m.gateways {
		if !gw.Available(ctx) {
			m.log.Debug("Gateway unavailable", slog.String("gateway", gw.Name()))
			errs = append(errs, fmt.Errorf("%s: %w", gw.Name(), interfaces.ErrGatewayUnavailable))
			continue
		}

		id, err := gw.Insert(ctx, key, env)
		if errors.Is(err, interfaces.ErrDuplicateRecord) {
			return "", interfaces.ErrDuplicateRecord
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", gw.Name(), err))
			m.log.Debug("Failed to insert record",
				slog.String("gateway", gw.Name()),
				slog.String("storageKey", key.Hex()),
				"err", err)
			continue
		}

		if !success {
			recordID = id
			success = true
		}
	}

	if !success {
		m.log.Error("Insert failed across gateways",
			slog.String("storageKey", key.Hex()),
			slog.Int("failedGateways", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return "", fmt.Errorf("all gateways failed to insert %s: %v", key.Hex(), errs)
	}

	m.log.Debug("Inserted registration record",
		slog.String("storageKey", key.Hex()),
		slog.Int("failedGateways", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return recordID, nil
}

// Available reports true when at least one underlying gateway is
// available.
func (m *MultiGateway) Available(ctx context.Context) bool {
	for _, gw := range m.gateways {
		if gw.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns a unique identifier for this gateway.
func (m *MultiGateway) Name() string {
	return fmt.Sprintf("multi-%d", len(m.gateways))
}

// LocationURI returns the URI that identifies this gateway.
func (m *MultiGateway) LocationURI() string {
	uris := make([]string, 0, len(m.gateways))
	for _, gw := range m.gateways {
		uris = append(uris, gw.LocationURI())
	}
	return fmt.Sprintf("multi://%v", uris)
}
