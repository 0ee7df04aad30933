package authz

import (
	"log/slog"
	"net/http"
)

// DecisionRecorder counts gate outcomes for monitoring.
type DecisionRecorder interface {
	RecordAuthzDecision(page, outcome string)
}

// Middleware gates HTTP routes on resolved page permissions.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
	Metrics  DecisionRecorder
}

// Require resolves the actor's breadth for the page and action family before
// the handler runs. Denied requests get 403; the resolved breadth is stored
// in the request context for the handler's record-level filtering.
func (m Middleware) Require(pagePath string, family ActionFamily) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			breadth, err := m.Resolver.Resolve(r.Context(), actor, pagePath, family)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz resolve", slog.String("page", pagePath), slog.String("family", string(family)), slog.Any("error", err))
				}
				m.record(pagePath, "error")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !breadth.Allowed() {
				m.record(pagePath, "denied")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			m.record(pagePath, "allowed")
			next.ServeHTTP(w, r.WithContext(ContextWithBreadth(r.Context(), breadth)))
		})
	}
}

func (m Middleware) record(page, outcome string) {
	if m.Metrics != nil {
		m.Metrics.RecordAuthzDecision(page, outcome)
	}
}
