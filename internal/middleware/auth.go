package middleware

import (
	stderrors "errors"

	"finances-api/internal/errors"
	"finances-api/internal/handlers"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Context keys set next to the owner identity
const (
	UsernameContextKey = "username"
	RoleContextKey     = "role"
	TokenJTIContextKey = "token_jti"
)

// RequireAuth creates a middleware that requires a valid JWT access token
// and checks that the token has not been blacklisted (e.g., after logout)
func RequireAuth(tokenService services.TokenServiceInterface, blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return handlers.SendError(c, errors.AuthMissingToken)
			}

			token, err := tokenService.ExtractTokenFromHeader(authHeader)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			claims, err := tokenService.ValidateAccessToken(token)
			if err != nil {
				if stderrors.Is(err, services.ErrExpiredToken) {
					return handlers.SendError(c, errors.AuthExpiredToken)
				}
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			revoked, err := blacklistedTokenRepo.IsBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				return handlers.SendSystemError(c, err)
			}
			if revoked {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Token has been revoked"))
			}

			ownerID, err := uuid.Parse(claims.OwnerID)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid owner ID in token"))
			}

			c.Set(handlers.OwnerIDContextKey, ownerID)
			c.Set(handlers.IsAdminContextKey, claims.Role == models.RoleAdmin)
			c.Set(UsernameContextKey, claims.Username)
			c.Set(RoleContextKey, claims.Role)
			c.Set(TokenJTIContextKey, claims.ID)

			return next(c)
		}
	}
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(requiredRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(RoleContextKey).(string)
			if !ok {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Role not found in token"))
			}

			for _, required := range requiredRoles {
				if role == required {
					return next(c)
				}
			}

			return handlers.SendError(c, errors.AuthInsufficientPermission)
		}
	}
}

// RequireAdmin is a convenience middleware that requires admin role
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}
