// Package session isolates authentication token storage behind a single
// provider abstraction. Nothing else in the service reads token storage
// directly; the pricing and filtering pipelines never see tokens at all.
package session

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNoSession is returned when no tokens are stored for a session.
var ErrNoSession = errors.New("no session")

// Tokens are the credentials held for one session against the upstream
// identity provider. Refreshing them is the API client's concern, not ours;
// we only store and clear.
type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// Provider stores and retrieves session tokens.
type Provider interface {
	// GetToken returns the access token for the session, or ErrNoSession.
	GetToken(ctx context.Context, sessionID string) (string, error)
	// SetTokens replaces the stored tokens for the session.
	SetTokens(ctx context.Context, sessionID string, t Tokens) error
	// Clear removes all tokens for the session. Clearing an unknown
	// session is a no-op.
	Clear(ctx context.Context, sessionID string) error
}
