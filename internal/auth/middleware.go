package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const UserKey = "authUser"

// Middleware rejects requests without a valid bearer token and stores the
// claims under UserKey.
func (v *Verifier) Middleware() echo.MiddlewareFunc {
	return v.middleware(extractBearerToken)
}

// QueryTokenMiddleware reads the token from the "token" query parameter.
// Browsers cannot set headers on WebSocket upgrades.
func (v *Verifier) QueryTokenMiddleware() echo.MiddlewareFunc {
	return v.middleware(func(c echo.Context) string {
		return c.QueryParam("token")
	})
}

func (v *Verifier) middleware(extract func(echo.Context) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extract(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}

			claims, err := v.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(UserKey, claims)
			return next(c)
		}
	}
}

// GetClaims returns the verified claims, or nil outside the middleware.
func GetClaims(c echo.Context) *Claims {
	claims, _ := c.Get(UserKey).(*Claims)
	return claims
}

// UserID returns the authenticated user's id, or "" outside the middleware.
func UserID(c echo.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
