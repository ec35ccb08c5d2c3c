package driven

import "context"

// IdentityClaims is the validated identity extracted from a sign-in
// token.
type IdentityClaims struct {
	// Email is the principal's primary identifier.
	Email string
	// Name is the display name.
	Name string
}

// TokenVerifier validates a dashboard sign-in token cryptographically
// and semantically (signature, audience, issuer, expiry) and extracts
// the identity. Implementations cache signing keys via a KeyCache.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*IdentityClaims, error)
}

// KeyCache is a time-bounded cache for per-tenant signing-key material.
type KeyCache interface {
	// Get returns the cached value for a key, or false when absent
	// or expired.
	Get(key string) (any, bool)

	// Set stores a value under a key, replacing any previous entry and
	// restarting its TTL.
	Set(key string, value any)
}
