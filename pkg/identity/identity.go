// Package identity carries the caller identity resolved by the upstream
// auth gateway. The gateway verifies the bearer credential and forwards the
// result in trusted headers; this service does not re-verify it.
package identity

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type Identity struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type ctxKey struct{}

func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

const (
	HeaderUserID = "X-User-Id"
	HeaderAdmin  = "X-User-Admin"
)

// Middleware attaches the forwarded identity to the request context.
// Requests without a valid user id are rejected as unauthenticated.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(HeaderUserID))
		if err != nil {
			http.Error(w, `{"kind":"unauthenticated","message":"missing or invalid identity"}`, http.StatusUnauthorized)
			return
		}
		id := Identity{
			UserID:  userID,
			IsAdmin: r.Header.Get(HeaderAdmin) == "true",
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}
