package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/keycustody/registration-backend/envelope"
	"github.com/keycustody/registration-backend/interfaces"
	"github.com/keycustody/registration-backend/kdf"
)

// Recover looks up an identity's registration record and opens its
// credential envelope with the pin-derived cipher key.
//
// A missing record, a wrong pin, and a corrupted envelope all collapse to
// a nil pair with a nil error; callers cannot distinguish them. An error
// is returned only when the storage gateway itself fails.
func (o *Orchestrator) Recover(ctx context.Context, id, appID string, pin uint32) (*envelope.KeyPair, error) {
	if id == "" {
		return nil, errors.New(MsgMissingID)
	}

	record, err := o.gateway.Lookup(ctx, kdf.StorageKey(id, appID))
	if errors.Is(err, interfaces.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed fetching registration record: %w", err)
	}

	pair, err := o.sealer.Open(record.Envelope(), kdf.CipherKey(id, pin, appID))
	if err != nil {
		o.log.Debug("Failed opening credential envelope", "err", err)
		return nil, nil
	}

	return pair, nil
}
