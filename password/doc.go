// Package password implements the credential hashing used by the warden
// engine: argon2id with a fresh random salt per hash, encoded in PHC string
// format, verified with a constant-time comparison.
//
// The hash output is opaque to callers. Parameters are embedded in the
// encoded string, so hashes produced under older cost settings remain
// verifiable after a configuration change; NeedsRehash reports when a stored
// hash should be upgraded.
package password
