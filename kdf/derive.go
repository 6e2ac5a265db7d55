// Package kdf derives storage and cipher keys from caller-supplied
// identity material.
//
// Both derivations are deterministic SHA-256 hashes over a fixed
// concatenation of inputs. The separators ("%" for app scoping of storage
// keys, "$" for pin and app scoping of cipher keys) are reserved and not
// expected in the identifier alphabet; they keep the concatenations
// unambiguous so distinct input tuples cannot collide by boundary
// shifting alone.
//
// The pin participates only in the cipher key derivation and is never
// persisted; only its hash-derived key is used, transiently, for a single
// seal or open operation.
package kdf

import (
	"crypto/sha256"
	"strconv"

	"github.com/keycustody/registration-backend/interfaces"
)

const (
	appSeparator = "%"
	pinSeparator = "$"
)

// StorageKey derives the record-identifying key for an identity.
// An empty appID yields the top-level key sha256(id); a non-empty appID
// yields the app-scoped key sha256(id + "%" + appID). The two namespaces
// are disjoint for any non-empty appID.
func StorageKey(id, appID string) interfaces.DerivedKey {
	if appID == "" {
		return interfaces.DerivedKey(sha256.Sum256([]byte(id)))
	}
	return interfaces.DerivedKey(sha256.Sum256([]byte(id + appSeparator + appID)))
}

// CipherKey derives the symmetric envelope key for an identity and pin.
// Top-level: sha256(id + "$" + pin). App-scoped: sha256(id + "$" + pin +
// "$" + appID). The pin is rendered in base-10 with no padding.
//
// CipherKey is independent of StorageKey: neither is derivable from the
// other beyond the one-way bound of the hash.
func CipherKey(id string, pin uint32, appID string) interfaces.DerivedKey {
	material := id + pinSeparator + strconv.FormatUint(uint64(pin), 10)
	if appID != "" {
		material += pinSeparator + appID
	}
	return interfaces.DerivedKey(sha256.Sum256([]byte(material)))
}
