package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// WorkspaceFromContext returns the workspace of the request session.
func WorkspaceFromContext(ctx context.Context) (string, error) {
	sess := SessionFromContext(ctx)
	if sess == nil || sess.ID == "" {
		return "", ErrNoSession
	}
	return sess.Workspace(), nil
}
