package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandler serves the session endpoints: login, token refresh and logout
type AuthHandler struct {
	authService services.AuthServiceInterface
}

func NewAuthHandler(authService services.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges username and password for an access and refresh token pair
// @Summary Login
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	tokens, err := h.authService.Login(c.Request().Context(), &req, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// RefreshToken rotates a refresh token into a new pair
// @Summary Refresh tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} errors.ErrorResponse "AUTH_004 - Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req dto.RefreshTokenRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	tokens, err := h.authService.RefreshTokens(c.Request().Context(), req.RefreshToken, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout revokes the presented access token and the owner's refresh tokens.
// It answers 200 even when revocation fails so the reply says nothing about the token.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, code := bearerToken(c)
	if code != "" {
		return SendError(c, code)
	}

	ctx := c.Request().Context()
	if err := h.authService.Logout(ctx, token, getClientIP(c), c.Request().UserAgent()); err != nil {
		slog.WarnContext(ctx, "logout failed", "trace_id", getTraceID(c), "error", err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "Logout successful"})
}

// bearerToken reads the Authorization header, returning the error code to send when it is unusable
func bearerToken(c echo.Context) (string, errors.ErrorCode) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errors.AuthMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errors.AuthInvalidTokenFormat
	}
	return strings.TrimSpace(token), ""
}
