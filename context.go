package warden

import "context"

type contextKey int

const clientIPKey contextKey = iota

// WithClientIP annotates a context with the caller's remote address so
// audit events can record it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the remote address stored by WithClientIP, or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
