// Package token issues the opaque credentials handed out by the engine:
// session tokens and password reset tokens. Tokens are drawn from
// crypto/rand with at least 122 bits of entropy and carry no structure a
// caller may rely on. Only the SHA-256 hash of a token is ever persisted.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/google/uuid"
)

// sessionTokenBytes is the raw entropy per session token (256 bits).
const sessionTokenBytes = 32

// NewSession returns a fresh opaque session token: 32 random bytes,
// base64url without padding.
func NewSession() (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// NewReset returns a fresh opaque password reset token. Reset tokens are
// random UUIDs (122 bits of entropy) so they survive being pasted into
// URLs and email bodies unescaped.
func NewReset() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Hash returns the hex-encoded SHA-256 digest of a token. Stores index
// identities by this digest; the plaintext token never touches storage.
func Hash(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
