package interceptors

import "context"

type contextKey struct{ name string }

var accountIDKey = contextKey{"account_id"}

// WithIdentity returns a context carrying the authenticated caller's account id.
// Handlers read it back with GetAccountID.
func WithIdentity(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// GetAccountID returns the caller's account id from context and true if set; otherwise "", false.
func GetAccountID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountIDKey).(string)
	return v, ok && v != ""
}
