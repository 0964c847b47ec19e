package postgrest

import "context"

// Credentials identify the caller to the store. Token is sent as a bearer
// credential and Username is stamped on every write as the row owner.
type Credentials struct {
	Token    string
	Username string
}

type credentialsKey struct{}

// WithCredentials attaches per-request credentials, overriding the client defaults.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFromContext returns credentials attached with WithCredentials.
func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	if ctx == nil {
		return Credentials{}, false
	}
	creds, ok := ctx.Value(credentialsKey{}).(Credentials)
	return creds, ok
}
