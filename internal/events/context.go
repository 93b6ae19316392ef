package events

import "context"

type sessionKey struct{}

// ContextWithSessionID tags ctx with the session that events published
// through PublishFor belong to.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFromContext returns the session carried by ctx, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// PublishFor publishes payload under the session carried by ctx.
func (b *Bus) PublishFor(ctx context.Context, source EventSource, payload EventPayload) {
	b.Publish(NewTypedEventWithSession(source, payload, SessionIDFromContext(ctx)))
}
