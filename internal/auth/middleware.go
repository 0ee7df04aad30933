package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ActorProvider builds the authorization context for a user; the roles
// service implements it.
type ActorProvider interface {
	ActorFor(ctx context.Context, userID int64) (authz.AuthContext, error)
}

// ActorMiddleware resolves the session user into an authz.AuthContext once
// per request. Anonymous requests pass through without an actor; permission
// gates then reject them.
type ActorMiddleware struct {
	Service  *Service
	Provider ActorProvider
	Logger   *slog.Logger
}

// Handler wraps next with actor resolution.
func (m ActorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := shared.UserIDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := m.Service.ActiveUser(r.Context(), userID); err != nil {
			// Deactivated or deleted account: treat as anonymous.
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.Provider.ActorFor(r.Context(), userID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("resolve actor", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.ContextWithActor(r.Context(), actor)))
	})
}
