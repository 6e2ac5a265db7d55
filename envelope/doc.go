/*
Package envelope generates custodial key-pairs and protects them under
derived cipher keys.

A credential envelope is the hex-encoded AES-256-CBC ciphertext of a JSON
document:

	{"publicKey": "<PEM>", "privateKey": "<PEM>"}

where the key-pair is a freshly generated ECDSA P-256 pair, the public key
in PKIX PEM and the private key in PKCS#8 PEM. The cipher key is the
32-byte output of the kdf package's CipherKey derivation; it exists in
memory only for the duration of a single Seal or Open call.

# Fixed IV

All envelopes produced by a Sealer share one initialization vector,
supplied via process configuration. IV reuse under CBC leaks structural
information when plaintexts share prefixes under the same key; this
construction is preserved for compatibility with previously stored
envelopes and should not be copied into new systems without moving to a
per-record random IV or an authenticated encryption mode. Changing the
wire format here breaks decryption of every existing record, so any fix
needs a migration plan first.
*/
package envelope
