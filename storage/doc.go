// Package storage provides key-addressed persistence for registration
// records with pluggable gateways.
//
// The package offers a unified interface for storing and retrieving
// registration records identified by their derived storage key across
// several gateways:
//
//   - In-memory storage for tests and local development
//   - File system storage for single-node deployments
//   - S3-compatible storage for cloud deployments
//   - Vault storage using the KV v2 secrets engine
//   - A replicated multi-gateway over any combination of the above
//
// # Gateway URI Format
//
// Gateways are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - mem://
//   - file:///var/lib/custody/records/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - vault://vault.example.com:8200/secret/custody
//
// # Uniqueness
//
// Insert must fail with interfaces.ErrDuplicateRecord when the storage
// key already holds a record. This is the system's only protection
// against two concurrent registrations of the same new identity; the
// orchestrator takes its existence snapshot once and never re-checks
// before inserting. Each gateway implements the check with whatever
// primitive its backend offers: map mutation under a mutex (mem), O_EXCL
// file creation (file), check-and-set with cas=0 (vault), or a HeadObject
// probe (s3, best effort only).
package storage
