package api

import (
	"context"
	"net/http"
	"time"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
	"lexbrief/internal/infra/logging"
	"lexbrief/internal/infra/metrics"
	lexredis "lexbrief/internal/infra/redis"
	"lexbrief/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Middleware func(http.Handler) http.Handler

type principalKey struct{}

// principalFrom never returns nil; anonymous callers get an empty principal.
func principalFrom(ctx context.Context) *model.Principal {
	if p, ok := ctx.Value(principalKey{}).(*model.Principal); ok && p != nil {
		return p
	}
	return &model.Principal{}
}

func TraceID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := r.Header.Get("X-Request-ID")
			if tid == "" {
				tid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", tid)
			ctx := logging.WithTraceID(r.Context(), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestLog(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			elapsed := time.Since(start)
			metrics.ObserveHTTPRequest(route, r.Method, ww.status, elapsed)

			l := logging.With(r.Context(), logger)
			l.Info().
				Str("method", r.Method).
				Str("route", route).
				Int("status", ww.status).
				Dur("duration", elapsed).
				Msg("http_request")
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func Recover(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l := logging.With(r.Context(), logger)
					l.Error().Interface("panic", rec).Msg("panic recovered")
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate resolves the session token when one is present. Requests
// without a valid token continue as anonymous.
func (s *Server) Authenticate() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := s.auth.ParseFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, p)
			ctx = logging.WithUserID(ctx, p.UserID)
			ctx = logging.WithSessID(ctx, p.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOnboarder lets only signed-in, non-guest users into the onboarding flow.
func (s *Server) RequireOnboarder() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := principalFrom(r.Context())
			switch {
			case !p.Authenticated():
				s.writeError(w, r, domain.ErrUnauthenticated)
			case p.Guest:
				s.writeError(w, r, domain.ErrGuestSession)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RateLimit throttles step submissions per user. A limiter outage lets requests through.
func (s *Server) RateLimit(limiter repository.RateLimiter, limit int, window time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			p := principalFrom(r.Context())
			ok, err := limiter.Allow(r.Context(), lexredis.StepSubmitKey(p.UserID), limit, window)
			if err != nil {
				l := logging.With(r.Context(), s.log)
				l.Warn().Err(err).Msg("rate limiter unavailable")
			} else if !ok {
				s.writeError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guard wraps application routes with the onboarding completion check.
func (s *Server) Guard(guard usecase.CompletionGuard) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			to, err := guard.Check(r.Context(), principalFrom(r.Context()))
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			if to != "" {
				writeRedirect(w, to)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
