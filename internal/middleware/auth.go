package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"kiosk-pos/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Staff roles issued by the auth service.
const (
	RoleAdmin   = "Admin"
	RoleCashier = "Cashier"
)

// StaffClaims are the claims carried by staff access tokens.
type StaffClaims struct {
	ID      int64  `json:"id"`
	StaffID string `json:"staff_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type staffKey struct{}

// WithStaff returns a context carrying the authenticated staff member.
func WithStaff(ctx context.Context, staff *StaffClaims) context.Context {
	return context.WithValue(ctx, staffKey{}, staff)
}

// StaffFromContext returns the staff member authenticated by StaffAuth.
func StaffFromContext(ctx context.Context) (*StaffClaims, bool) {
	staff, ok := ctx.Value(staffKey{}).(*StaffClaims)
	return staff, ok && staff != nil
}

var errMissingToken = errors.New("missing bearer token")

// ParseStaffToken verifies an HMAC-signed staff token.
func ParseStaffToken(secret, tokenString string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}

// StaffAuth rejects requests without a valid staff token and stores the
// token's claims in the request context.
func StaffAuth(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				logger.Warn().Str("path", r.URL.Path).Msg("missing staff token")
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "no token provided")
				return
			}

			claims, err := ParseStaffToken(secret, token)
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("invalid staff token")
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithStaff(r.Context(), claims)))
		})
	}
}

// RequireRole allows only staff whose role is one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			staff, ok := StaffFromContext(r.Context())
			if !ok || !allowed[staff.Role] {
				writeError(w, r, http.StatusForbidden, model.ErrCodeForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
