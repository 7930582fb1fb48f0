package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

type ctxKey struct{}

// Principal is the caller identified by a verified session token.
type Principal struct {
	UserID    string
	ProfileID string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFromContext returns the caller set by AuthnMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

func logFromRequest(r *http.Request) *slog.Logger {
	return slogx.FromContext(r.Context())
}
