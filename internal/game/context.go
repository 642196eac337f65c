package game

import (
	"context"

	"github.com/google/uuid"
)

type sessionIDKey struct{}

// WithSessionID tags ctx with the id of the session making a request, so a
// Source can forward it (for example as a request id header).
func WithSessionID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session id set by WithSessionID.
func SessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
