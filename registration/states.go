package registration

// Request carries the caller-supplied registration material. AppID may be
// empty for a top-level registration. The pin participates only in cipher
// key derivation and is never persisted.
type Request struct {
	ID    string
	AppID string
	Pin   uint32
}

// HasAppID reports whether the request is scoped to an application.
func (r Request) HasAppID() bool {
	return r.AppID != ""
}

// Fixed terminal error messages. These are part of the output contract.
const (
	MsgLookupFailed           = "Failed fetching login details"
	MsgAlreadyRegistered      = "Account already registered"
	MsgAccountInsertFailed    = "Failed registering account"
	MsgAppAccountInsertFailed = "Failed registering app account"
	MsgMissingID              = "Missing required id"
)

// State is the tagged union of machine states. Each variant carries only
// the data meaningful in that state. Registered and Errored are terminal.
type State interface {
	stateName() string
}

// Idle is the initial state; only a Register event leaves it.
type Idle struct{}

// FetchingLogins is the state during the storage lookups for the
// top-level and (if scoped) app-scoped records.
type FetchingLogins struct {
	Req Request
}

// Validating holds the lookup snapshot the guards evaluate. The snapshot
// is taken once; no re-check happens before the final insert.
type Validating struct {
	Req             Request
	Registered      bool
	RegisteredInApp bool
}

// RegisteringAccount is the state during the top-level record insert.
type RegisteringAccount struct {
	Req Request
}

// RegisteringAppAccount is the state during the app-scoped record insert.
type RegisteringAppAccount struct {
	Req Request
}

// Registered is the successful terminal state.
type Registered struct{}

// Errored is the failure terminal state, carrying the fixed message that
// becomes the run's output error.
type Errored struct {
	Message string
}

func (Idle) stateName() string                  { return "Idle" }
func (FetchingLogins) stateName() string        { return "FetchingLogins" }
func (Validating) stateName() string            { return "Validating" }
func (RegisteringAccount) stateName() string    { return "RegisteringAccount" }
func (RegisteringAppAccount) stateName() string { return "RegisteringAppAccount" }
func (Registered) stateName() string            { return "Registered" }
func (Errored) stateName() string               { return "Errored" }

// Name returns the state's name for logging.
func Name(s State) string {
	return s.stateName()
}

// Event is the tagged union of machine inputs. Events not meaningful in
// the current state are ignored, not errors.
type Event interface {
	eventName() string
}

// Register starts a run. Accepted only from Idle.
type Register struct {
	Req Request
}

// LookupSucceeded reports the existence snapshot from FetchingLogins.
// RegisteredInApp defaults to false when no app-scoped record was looked
// up.
type LookupSucceeded struct {
	Registered      bool
	RegisteredInApp bool
}

// LookupFailed reports a storage read error during FetchingLogins.
type LookupFailed struct{}

// Validated triggers guard evaluation in Validating.
type Validated struct{}

// InsertSucceeded reports a successful record insert.
type InsertSucceeded struct{}

// InsertFailed reports a storage write error.
type InsertFailed struct{}

func (Register) eventName() string        { return "Register" }
func (LookupSucceeded) eventName() string { return "LookupSucceeded" }
func (LookupFailed) eventName() string    { return "LookupFailed" }
func (Validated) eventName() string       { return "Validated" }
func (InsertSucceeded) eventName() string { return "InsertSucceeded" }
func (InsertFailed) eventName() string    { return "InsertFailed" }
