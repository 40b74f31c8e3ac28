package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tablebill/api/internal/auth"
)

type claimsKeyType struct{}

var claimsKey claimsKeyType

var (
	errNoHeader      = errors.New("missing authorization header")
	errBadScheme     = errors.New("invalid authorization format")
	errNoOutlet      = errors.New("missing outlet ID")
	errInvalidOutlet = errors.New("invalid outlet ID")
)

// Authenticate validates the bearer token and stores its claims on the
// request context.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireOutlet rejects staff tokens issued for a different outlet than the
// {oid} path parameter.
func RequireOutlet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		outletID, err := pathOutlet(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !claims.CanAccessOutlet(outletID) {
			writeError(w, http.StatusForbidden, "access denied for this outlet")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireActor lets through only the listed actor kinds.
func RequireActor(kinds ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if _, ok := allowed[claims.ActorKind]; !ok {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// WithClaims stores claims the way Authenticate does.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errBadScheme
	}
	return token, nil
}

// pathOutlet reads {oid} from a chi route, falling back to net/http patterns.
func pathOutlet(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "oid")
	if raw == "" {
		raw = r.PathValue("oid")
	}
	if raw == "" {
		return uuid.Nil, errNoOutlet
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errInvalidOutlet
	}
	return id, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg}) //nolint:errcheck
}
