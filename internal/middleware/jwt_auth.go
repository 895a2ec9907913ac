package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/anonto42/tipbox/backend/internal/identity"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// JWTAuthMiddleware resolves the bearer credential, if any, and stores the
// principal in the context. A missing header leaves the request anonymous;
// a credential that fails verification is rejected.
func JWTAuthMiddleware(resolver identity.Resolver, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				c.Set(principalKey, identity.Principal{})
				return next(c)
			}

			token, ok := identity.BearerToken(authHeader)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			principal, err := resolver.Resolve(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrInvalidCredential) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				}
				logger.Error("failed to resolve credential", slog.String("error", err.Error()))
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to authenticate")
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// RequireUser rejects requests without a numeric user identity.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserIDFromContext(c) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			return next(c)
		}
	}
}

// PrincipalFromContext returns the principal stored by JWTAuthMiddleware.
func PrincipalFromContext(c echo.Context) identity.Principal {
	p, _ := c.Get(principalKey).(identity.Principal)
	return p
}

// UserIDFromContext returns the numeric user id, or 0 when there is none.
func UserIDFromContext(c echo.Context) uint {
	p := PrincipalFromContext(c)
	if !p.Numeric {
		return 0
	}
	return p.UserID
}
