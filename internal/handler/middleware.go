package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/msomdec/gadget-registry/internal/credential"
	"github.com/msomdec/gadget-registry/internal/domain"
	"github.com/msomdec/gadget-registry/internal/service"
)

// AuthCookieName is the cookie carrying the session token.
const AuthCookieName = "auth_token"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type contextKey string

const (
	callerContextKey contextKey = "caller"
	loggerContextKey contextKey = "logger"
)

// TokenVerifier resolves a session token to the user id it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (uuid.UUID, error)
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerContextKey).(domain.Caller)
	return c, ok
}

func contextWithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, l)
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// RequireAuth rejects requests without a valid session cookie and puts the
// resolved caller into the request context. It does not touch storage.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AuthCookieName)
			if err != nil || cookie.Value == "" {
				respondError(w, r, domain.Unauthenticated("authentication required"))
				return
			}

			userID, err := tokens.VerifyToken(cookie.Value)
			if err != nil {
				logger := loggerFrom(r.Context())
				switch {
				case errors.Is(err, credential.ErrTokenExpired):
					logger.Info("session token expired", "error", err)
				case errors.Is(err, credential.ErrTokenInvalid):
					logger.Warn("session token rejected", "error", err)
				default:
					logger.Error("session token verification failed", "error", err)
				}
				respondError(w, r, domain.Unauthenticated("invalid or expired session"))
				return
			}

			ctx := context.WithValue(r.Context(), callerContextKey, domain.Caller{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger assigns a request id, exposes a request-scoped logger to
// downstream handlers and writes one access log line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" || len(reqID) > 64 {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			reqLogger := logger.With(
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx := contextWithLogger(r.Context(), reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqLogger.Info("request",
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		})
	}
}

// Recoverer turns a panic into a 500 envelope. If the handler already
// started the response, the panic is only logged.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			loggerFrom(r.Context()).Error("panic",
				"panic", rec,
				"response_started", ww.Status() != 0,
				"stack", string(debug.Stack()),
			)
			if ww.Status() != 0 {
				return
			}
			respondError(ww, r, fmt.Errorf("panic: %v", rec))
		}()
		next.ServeHTTP(ww, r)
	})
}

// SecurityHeaders sets conservative headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// LimitBody caps the request body size.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// RateLimit throttles requests per client IP. A nil limiter disables it.
func RateLimit(limiter *service.TokenBucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				respondError(w, r, domain.TooManyRequests("too many attempts, try again later"), "remote", r.RemoteAddr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
