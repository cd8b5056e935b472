package credential

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

/* Per-source webhook credentials. Only the SHA-256 of the token is ever
 * stored or compared; the plaintext exists only inside the request that
 * presented it. At most one active credential per (project, source) pair:
 * rotation writes the replacement and revokes the prior one atomically.
 */

// Credential is a stored webhook credential. TokenHash is the hex-encoded
// SHA-256 of the bearer token.
type Credential struct {
	SourceID  string
	ProjectID string
	TokenHash string
	CreatedAt time.Time
	RevokedAt time.Time
}

// Active reports whether the credential has not been revoked.
func (c Credential) Active() bool {
	return c.RevokedAt.IsZero()
}

// Store persists credentials keyed by source.
type Store interface {
	/* Active returns the current non-revoked credential for the source,
	 * or an error when none exists.
	 */
	Active(ctx context.Context, sourceID string) (Credential, error)

	/* Rotate installs a credential with the given token hash and revokes
	 * the prior active one in the same atomic write.
	 */
	Rotate(ctx context.Context, sourceID, projectID, tokenHash string) error

	// Revoke marks the active credential for the source as revoked
	Revoke(ctx context.Context, sourceID string) error
}

// HashToken returns the hex-encoded SHA-256 of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken compares a presented token against a stored hash in
// constant time. Raw tokens are never compared directly.
func VerifyToken(presented, storedHash string) bool {
	presentedHash := HashToken(presented)
	return subtle.ConstantTimeCompare([]byte(presentedHash), []byte(storedHash)) == 1
}

// Validate checks the structural validity of a credential.
func (c Credential) Validate() error {
	if c.SourceID == "" {
		return fmt.Errorf("source_id cannot be empty")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("project_id cannot be empty for source %s", c.SourceID)
	}
	if len(c.TokenHash) != sha256.Size*2 {
		return fmt.Errorf("token_hash must be a hex sha256 for source %s", c.SourceID)
	}
	return nil
}
