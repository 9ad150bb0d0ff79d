package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	apperrors "github.com/spectra-metals/spectra-server/pkg/errors"
	"go.uber.org/zap"
)

// AuthAdmin represents an authenticated dashboard admin from JWT
type AuthAdmin struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// contextKey is used for storing the admin in context
type contextKey string

const (
	adminContextKey contextKey = "authenticated_admin"
)

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware creates a middleware that validates admin session tokens
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip JWT validation for certain paths
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			// Extract token from Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Authorization header required",
					"code":  "MISSING_AUTH_HEADER",
				})
			}

			// Check Bearer prefix
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid authorization header format. Expected: Bearer <token>",
					"code":  "INVALID_AUTH_FORMAT",
				})
			}

			// Parse and validate JWT token
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				// Verify signing method
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(config.Secret), nil
			})

			if err != nil {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid or expired token",
					"code":  "INVALID_TOKEN",
				})
			}

			if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
				username, _ := claims["sub"].(string)
				role, _ := claims["role"].(string)
				if username == "" || role != "admin" {
					config.Logger.Warn("Token carries no admin claim",
						zap.String("path", path))
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"error": "Invalid token claims",
						"code":  "INVALID_CLAIMS",
					})
				}

				authAdmin := &AuthAdmin{
					Username: username,
					Role:     role,
				}

				// Store admin in request context
				ctx := context.WithValue(c.Request().Context(), adminContextKey, authAdmin)
				c.SetRequest(c.Request().WithContext(ctx))
				c.Set("admin_username", username)

				config.Logger.Debug("Admin authenticated successfully",
					zap.String("username", username),
					zap.String("path", path))

				return next(c)
			}

			config.Logger.Warn("Invalid JWT claims",
				zap.String("path", path))
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error": "Invalid token claims",
				"code":  "INVALID_CLAIMS",
			})
		}
	}
}

// GetAdminFromContext extracts the authenticated admin from the request context
func GetAdminFromContext(c echo.Context) (*AuthAdmin, error) {
	admin, ok := c.Request().Context().Value(adminContextKey).(*AuthAdmin)
	if !ok || admin == nil {
		return nil, fmt.Errorf("no authenticated admin found in context")
	}
	return admin, nil
}

// RequireAuth returns the authenticated admin, or a coded error for the
// server's error handler to render as a 401.
func RequireAuth(c echo.Context) (*AuthAdmin, error) {
	admin, err := GetAdminFromContext(c)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Authentication required", err)
	}
	return admin, nil
}
