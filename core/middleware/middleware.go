package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/david-fold-studio/life-sphere-habits/core/config"
	"github.com/david-fold-studio/life-sphere-habits/core/errors"
)

const ContextUserIDKey = "user_id"

type Middleware struct {
	jwtSecret []byte
}

func NewMiddleware() *Middleware {
	cfg := config.Get()
	return &Middleware{jwtSecret: []byte(cfg.JWT.Secret)}
}

// AuthMiddleware validates the bearer token and puts the owner id on the
// echo context. Token issuance and refresh happen outside this service.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return c.JSON(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrMissingAuthorizationHeader, "Authorization header required", nil))
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrInvalidTokenFormat, "Expected bearer token", nil))
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return m.jwtSecret, nil
			})
			if err != nil || !token.Valid {
				code := errors.ErrUnauthorized
				if err != nil && strings.Contains(err.Error(), "expired") {
					code = errors.ErrTokenExpired
				}
				return c.JSON(http.StatusUnauthorized,
					errors.NewAppError(code, "Invalid token", err))
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return c.JSON(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrUnauthorized, "Token missing subject", err))
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				return c.JSON(http.StatusUnauthorized,
					errors.NewAppError(errors.ErrUnauthorized, "Token subject is not a user id", err))
			}

			c.Set(ContextUserIDKey, userID)
			return next(c)
		}
	}
}

// UserID extracts the authenticated owner id set by AuthMiddleware.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ContextUserIDKey).(uuid.UUID)
	return id, ok
}
