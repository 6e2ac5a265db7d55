package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/keycustody/registration-backend/envelope"
	"github.com/keycustody/registration-backend/interfaces"
	"github.com/keycustody/registration-backend/kdf"
)

// Result is the terminal output of a registration run.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Orchestrator drives registration runs against a storage gateway. Each
// run is independent: it holds its state on the stack, shares nothing
// with other runs except the gateway, and proceeds sequentially to a
// terminal state. The orchestrator itself is safe for concurrent use.
//
// Two concurrent runs for the same new identity can both observe "not
// registered" and both attempt the insert; the gateway's duplicate
// detection is the only backstop. No retries, no rollback: a persisted
// top-level record is kept even when the subsequent app-scoped insert
// fails.
type Orchestrator struct {
	gateway interfaces.StorageGateway
	sealer  *envelope.Sealer
	log     *slog.Logger
}

// New creates an orchestrator with explicit dependencies. The caller owns
// the gateway and sealer lifecycles.
func New(gateway interfaces.StorageGateway, sealer *envelope.Sealer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		sealer:  sealer,
		log:     log,
	}
}

// Start runs a registration to completion. An empty id is rejected before
// any I/O; every other failure is captured into the terminal result, and
// no error crosses this boundary.
func (o *Orchestrator) Start(ctx context.Context, id, appID string, pin uint32) Result {
	if id == "" {
		return Result{Success: false, Error: MsgMissingID}
	}

	req := Request{ID: id, AppID: appID, Pin: pin}
	state := Transition(Idle{}, Register{Req: req})

	for !Terminal(state) {
		var event Event
		switch s := state.(type) {
		case FetchingLogins:
			event = o.fetchLogins(ctx, s.Req)
		case Validating:
			event = Validated{}
		case RegisteringAccount:
			event = o.insertRecord(ctx, s.Req, "")
		case RegisteringAppAccount:
			event = o.insertRecord(ctx, s.Req, s.Req.AppID)
		default:
			// Unreachable: Register from Idle is the only entry and every
			// non-terminal state is handled above.
			return Result{Success: false, Error: MsgLookupFailed}
		}

		next := Transition(state, event)
		o.log.Debug("Registration transition",
			slog.String("from", Name(state)),
			slog.String("event", event.eventName()),
			slog.String("to", Name(next)))
		state = next
	}

	if errored, ok := state.(Errored); ok {
		o.log.Info("Registration failed", slog.String("reason", errored.Message))
		return Result{Success: false, Error: errored.Message}
	}

	o.log.Info("Registration completed", slog.Bool("appScoped", req.HasAppID()))
	return Result{Success: true}
}

// fetchLogins performs both existence checks before any guard evaluates.
// The app-scoped check runs only when an app ID was given; its result
// defaults to false otherwise.
func (o *Orchestrator) fetchLogins(ctx context.Context, req Request) Event {
	registered, err := o.recordExists(ctx, kdf.StorageKey(req.ID, ""))
	if err != nil {
		o.log.Error("Login lookup failed", "err", err)
		return LookupFailed{}
	}

	registeredInApp := false
	if req.HasAppID() {
		registeredInApp, err = o.recordExists(ctx, kdf.StorageKey(req.ID, req.AppID))
		if err != nil {
			o.log.Error("App login lookup failed", "err", err)
			return LookupFailed{}
		}
	}

	return LookupSucceeded{Registered: registered, RegisteredInApp: registeredInApp}
}

func (o *Orchestrator) recordExists(ctx context.Context, key interfaces.DerivedKey) (bool, error) {
	_, err := o.gateway.Lookup(ctx, key)
	if errors.Is(err, interfaces.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// insertRecord seals a fresh credential envelope under the scope's cipher
// key and persists it under the scope's storage key. An empty appID means
// the top-level scope.
func (o *Orchestrator) insertRecord(ctx context.Context, req Request, appID string) Event {
	env, err := o.sealer.Seal(kdf.CipherKey(req.ID, req.Pin, appID))
	if err != nil {
		o.log.Error("Failed sealing credential envelope", "err", err)
		return InsertFailed{}
	}

	storageKey := kdf.StorageKey(req.ID, appID)
	recordID, err := o.gateway.Insert(ctx, storageKey, env)
	if err != nil {
		o.log.Error("Failed inserting registration record",
			slog.String("storageKey", storageKey.Hex()),
			"err", err)
		return InsertFailed{}
	}

	o.log.Debug("Inserted registration record",
		slog.String("storageKey", storageKey.Hex()),
		slog.String("recordID", string(recordID)))
	return InsertSucceeded{}
}
