package auth

import "context"

// Adapter abstracts the identity provider. The rest of the application only
// ever sees opaque auth IDs and bearer tokens, so swapping providers is a
// wiring change.
type Adapter interface {
	// Register creates a new identity and returns its auth ID.
	Register(ctx context.Context, email, password string) (string, error)
	// Login verifies credentials and returns a bearer token plus the auth ID.
	Login(ctx context.Context, email, password string) (token, authID string, err error)
	// VerifyToken validates a bearer token and returns the auth ID it was
	// issued for. Every failure mode collapses to an unauthorized error.
	VerifyToken(ctx context.Context, token string) (string, error)
	// Lookup returns the auth ID registered for email, if any.
	Lookup(ctx context.Context, email string) (string, bool, error)
	// DeleteUser removes the identity behind authID.
	DeleteUser(ctx context.Context, authID string) error
}
