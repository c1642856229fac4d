package middleware

import (
	"net/http"
	"strings"

	"github.com/anonto42/mintfeed/backend/internal/models"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uint
	Address  string
	Username string
}

// TokenParser verifies local session tokens.
type TokenParser interface {
	ParseToken(token string) (*models.JwtCustomClaims, error)
}

// JWTAuthMiddleware resolves an optional bearer token into a Principal.
// Requests without an Authorization header pass through anonymously; a
// header that does not verify is rejected.
func JWTAuthMiddleware(tokens TokenParser, firebase FirebaseResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}
			tokenString := parts[1]

			claims, err := tokens.ParseToken(tokenString)
			if err == nil {
				c.Set(principalKey, &Principal{UserID: claims.UserID, Address: claims.Address, Username: claims.Username})
				return next(c)
			}

			p, ferr := resolveFirebase(c, firebase, tokenString)
			if ferr != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if PrincipalFrom(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}
			return next(c)
		}
	}
}

func PrincipalFrom(c echo.Context) *Principal {
	p, _ := c.Get(principalKey).(*Principal)
	return p
}

// ViewerID returns the caller's user id, zero when anonymous.
func ViewerID(c echo.Context) uint {
	if p := PrincipalFrom(c); p != nil {
		return p.UserID
	}
	return 0
}
