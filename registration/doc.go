/*
Package registration implements the custodial key registration state
machine.

The machine is split into a pure core and an effect layer. The core is a
tagged union of state variants (Idle, FetchingLogins, Validating,
RegisteringAccount, RegisteringAppAccount, Registered, Errored) and the
Transition function, which maps a state and an event to the next state
with no I/O and no failure modes. The effect layer, Orchestrator, walks
the machine: on entering FetchingLogins it performs the storage lookups,
on entering a registering state it seals and inserts a record, and it
feeds the outcome back into Transition until a terminal state is reached.

Branch logic, in order:

  - neither record exists: register a top-level account, then an
    app-scoped account too when an app ID was given
  - top-level record exists, app-scoped does not, app ID given: register
    only the app-scoped account
  - anything else: rejected as an existing registration

Failure semantics: any single lookup or insert failure is terminal for
the run, with a fixed message captured into the result. There are no
retries and no rollback; when the top-level insert succeeds and the
app-scoped insert then fails, the top-level record stays persisted and
the run reports overall failure.

The package also carries the credential read path: Recover fetches a
record and opens its envelope, collapsing missing records, wrong pins,
and corrupted envelopes into one absence value.
*/
package registration
