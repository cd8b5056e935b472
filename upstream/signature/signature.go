package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/* HMAC request signing for pushes to the upstream metrics API. The signed
 * content is {projectID}.{unix_timestamp}.{body}, so a captured request can
 * be neither replayed under another project nor re-dated. Secrets travel in
 * the whsec_ base64 envelope.
 */

const (
	// SecretPrefix marks a base64-encoded symmetric signing secret
	SecretPrefix = "whsec_"

	// Version is the signature scheme identifier
	Version = "v1"

	// MinSecretBytes is the minimum accepted secret size (192 bits)
	MinSecretBytes = 24

	// MaxSecretBytes is the maximum accepted secret size (512 bits)
	MaxSecretBytes = 64
)

// Secret is a symmetric signing secret. The zero value signs nothing.
type Secret struct {
	raw    []byte
	base64 string
}

// Generate creates a cryptographically secure signing secret
func Generate(size int) (Secret, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, fmt.Errorf("generating random bytes: %w", err)
	}

	return Secret{
		raw:    raw,
		base64: SecretPrefix + base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// Parse decodes a base64-encoded secret with the whsec_ prefix
func Parse(encoded string) (Secret, error) {
	if !strings.HasPrefix(encoded, SecretPrefix) {
		return Secret{}, fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, SecretPrefix))
	if err != nil {
		return Secret{}, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	return Secret{raw: raw, base64: encoded}, nil
}

// String returns the base64-encoded secret with its prefix
func (s Secret) String() string {
	return s.base64
}

// IsZero reports whether the secret is unset
func (s Secret) IsZero() bool {
	return len(s.raw) == 0
}

// Sign computes the signature header value for one request:
// "v1,<base64 hmac-sha256>"
func Sign(secret Secret, projectID string, timestamp time.Time, body []byte) (string, error) {
	if secret.IsZero() {
		return "", fmt.Errorf("signing secret is not set")
	}
	if strings.Contains(projectID, ".") {
		return "", fmt.Errorf("project ID must not contain '.'")
	}

	content := fmt.Sprintf("%s.%s.%s", projectID, strconv.FormatInt(timestamp.Unix(), 10), body)

	mac := hmac.New(sha256.New, secret.raw)
	mac.Write([]byte(content))

	return Version + "," + base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks a signature header value in constant time
func Verify(secret Secret, projectID string, timestamp time.Time, body []byte, header string) (bool, error) {
	version, _, found := strings.Cut(header, ",")
	if !found {
		return false, fmt.Errorf("invalid signature format, expected 'version,signature'")
	}
	if version != Version {
		return false, fmt.Errorf("unsupported signature version: %s", version)
	}

	expected, err := Sign(secret, projectID, timestamp, body)
	if err != nil {
		return false, fmt.Errorf("calculating signature: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(expected), []byte(header)) == 1, nil
}
