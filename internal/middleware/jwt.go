package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// OwnerAuth returns an Echo middleware that validates a Bearer owner
// token and injects the conference id from its "conf" claim into the
// request context.  Owner handlers read it via c.Get("conference_id")
// and only operate on that conference.
func OwnerAuth(secret string) echo.MiddlewareFunc {
	// The outer function returns a middleware function.  Echo executes
	// this once when registering the middleware.
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		// The returned handler is invoked for each incoming HTTP request.
		return func(c echo.Context) error {
			// Read the Authorization header.  A valid header starts with
			// "Bearer " followed by the JWT; anything else is answered
			// with 401 Unauthorized.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			// Remove the "Bearer " prefix to obtain the raw token string.
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse the token with the HS256 signing method and our
			// secret.  The callback supplies the signing key and rejects
			// any token signed with a different algorithm.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Type assert the signing method to HMAC; reject others.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				// Return the secret bytes used to sign the token.
				return []byte(secret), nil
			})
			// If parsing failed or the token is invalid, respond with 401.
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// Extract the claims into a map for easy access.  If the
			// assertion fails, the claims are not in the expected format.
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			// The "conf" claim carries the conference this owner token is
			// scoped to.  A token without it grants access to nothing.
			conf, ok := claims["conf"].(string)
			if !ok || conf == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token not scoped to a conference"})
			}

			// Store the conference id in the context.  Owner handlers and
			// downstream middleware read it via c.Get().
			c.Set("conference_id", conf)
			// Call the next handler in the chain and return its result.
			return next(c)
		}
	}
}
