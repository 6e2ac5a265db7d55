/*
Package interfaces defines shared types and contracts for the custodial key
registration backend.

The package carries no implementation; it exists so that the key derivation,
envelope, orchestration, and storage packages can depend on a single set of
types without depending on one another.

# Derived Keys

DerivedKey is a 32-byte SHA-256 output used in two roles:

  - storage key: identifies a registration record; persisted (hex) as the
    record's ID field
  - cipher key: symmetric key protecting the credential envelope; never
    persisted, held in memory only for a single seal or open operation

The two roles are produced by independent one-way derivations over
overlapping but distinct input tuples (see the kdf package).

# Storage Gateway

StorageGateway is the narrow persistence contract the orchestrator runs
against: Lookup and Insert over records keyed by storage key, plus
availability and identification helpers. Gateways are constructed from
location URIs by a GatewayFactory:

  - mem://                             in-memory (tests, development)
  - file:///var/lib/custody/records/   local filesystem
  - s3://bucket/prefix/?region=...     Amazon S3 or compatible
  - vault://vault.example.com:8200/secret/custody  HashiCorp Vault KV

Insert reports ErrDuplicateRecord when the storage key is already taken.
The orchestrator itself performs no re-check between validation and
insert, so this backend-side uniqueness check is the only backstop
against two concurrent first registrations of the same identity.
*/
package interfaces
