package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

const (
	// InitDataHeader carries the signed Telegram Mini App init data.
	InitDataHeader = "X-Telegram-Init-Data"
	// DebugIDHeader carries a raw Telegram id when the debug bypass is on.
	DebugIDHeader = "X-Telegram-Id"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// CallerContextKey is the context key for the verified caller
	CallerContextKey ContextKey = "caller"
)

// IdentityVerifier checks a signed identity assertion.
type IdentityVerifier interface {
	Verify(initData string) (*domain.VerifiedCaller, error)
}

// AuthFailureRecorder counts rejected assertions.
type AuthFailureRecorder interface {
	AuthFailed(reason string)
}

// AuthConfig configures AuthMiddleware.
type AuthConfig struct {
	Verifier    IdentityVerifier
	DebugBypass bool
	Metrics     AuthFailureRecorder
	Logger      zerolog.Logger
}

// AuthMiddleware creates an authentication middleware. It only establishes
// who the caller is; whitelisting is left to the use cases.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := authenticate(cfg, r)
			if err != nil {
				reason := authFailureReason(err)
				if cfg.Metrics != nil {
					cfg.Metrics.AuthFailed(reason)
				}
				cfg.Logger.Warn().
					Str("reason", reason).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Msg("request rejected by auth")

				writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func authenticate(cfg AuthConfig, r *http.Request) (*domain.VerifiedCaller, error) {
	if initData := strings.TrimSpace(r.Header.Get(InitDataHeader)); initData != "" {
		return cfg.Verifier.Verify(initData)
	}

	raw := strings.TrimSpace(r.Header.Get(DebugIDHeader))
	if raw == "" || !cfg.DebugBypass {
		return nil, domain.ErrMissingIdentity
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.ErrMissingIdentity
	}

	return &domain.VerifiedCaller{ID: id, Method: domain.AuthMethodDebug}, nil
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrStaleAssertion):
		return "stale_assertion"
	case errors.Is(err, domain.ErrMissingIdentity):
		return "missing_identity"
	default:
		return "unknown"
	}
}

// WithCaller stores caller in ctx.
func WithCaller(ctx context.Context, caller *domain.VerifiedCaller) context.Context {
	return context.WithValue(ctx, CallerContextKey, caller)
}

// CallerFromContext extracts the verified caller from context
func CallerFromContext(ctx context.Context) (*domain.VerifiedCaller, bool) {
	caller, ok := ctx.Value(CallerContextKey).(*domain.VerifiedCaller)
	return caller, ok && caller != nil
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
