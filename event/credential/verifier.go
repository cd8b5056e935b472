package credential

import (
	"context"

	"github.com/pulseboard/eventpipe/event"
)

/* Verifier implements event.Authenticator on top of a Store.
 * Lookup misses and hash mismatches both collapse to ErrUnauthorized so
 * callers cannot probe which sources exist.
 */
type Verifier struct {
	Store Store
}

// NewVerifier creates a verifier backed by the given credential store
func NewVerifier(store Store) *Verifier {
	return &Verifier{Store: store}
}

// Authenticate resolves a presented bearer token to the credential's project
func (v *Verifier) Authenticate(ctx context.Context, sourceID, token string) (string, error) {
	if token == "" {
		return "", event.ErrUnauthorized
	}
	cred, err := v.Store.Active(ctx, sourceID)
	if err != nil {
		return "", event.ErrUnauthorized
	}
	if !VerifyToken(token, cred.TokenHash) {
		return "", event.ErrUnauthorized
	}
	return cred.ProjectID, nil
}

var _ event.Authenticator = (*Verifier)(nil)
