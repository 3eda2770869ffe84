package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Bbt3-alx/akera-backend/api/responses"
	pkgauth "github.com/Bbt3-alx/akera-backend/pkg/auth"
	"github.com/Bbt3-alx/akera-backend/pkg/config"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// manager, company and role the claims carry.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxManagerID, claims.ManagerID)
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			if claims.CompanyID != nil {
				ctx = context.WithValue(ctx, ctxCompanyID, *claims.CompanyID)
			}

			if logg != nil {
				fields := map[string]any{
					"manager_id": claims.ManagerID.String(),
					"actor_role": string(claims.Role),
				}
				if claims.CompanyID != nil {
					fields["company_id"] = claims.CompanyID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
