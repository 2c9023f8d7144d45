package model

import "time"

// Credential is the bearer token pair issued by the authorization server
type Credential struct {
	Kind   string // token type, e.g. "bearer"
	Secret string // opaque access token

	// ExpiresAt is zero when the server did not report a lifetime
	ExpiresAt time.Time
}

// Header renders the credential the way the Authorization header and the
// push channel authorization message carry it
func (c Credential) Header() string {
	return c.Kind + " " + c.Secret
}

// ExpiredAt reports whether the credential has expired at the given time
func (c Credential) ExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
