package credential

import (
	"context"
	"time"
)

// Credential is a bearer token together with the lifetime reported by the
// authorization endpoint. Values are immutable once installed; the Manager
// replaces the whole Credential instead of updating fields.
type Credential struct {
	// Token is the opaque bearer token
	Token string

	// ExpiresIn is the number of seconds the token was valid for at fetch time
	ExpiresIn int

	// FetchedAt is when the token was received
	FetchedAt time.Time
}

// ExpiryInstant returns FetchedAt + ExpiresIn.
func (c *Credential) ExpiryInstant() time.Time {
	return c.FetchedAt.Add(time.Duration(c.ExpiresIn) * time.Second)
}

// Fetcher obtains a fresh Credential. Implementations make a single attempt
// and must honour ctx cancellation.
type Fetcher interface {
	FetchToken(ctx context.Context) (*Credential, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (*Credential, error)

// FetchToken calls f(ctx).
func (f FetcherFunc) FetchToken(ctx context.Context) (*Credential, error) {
	return f(ctx)
}
