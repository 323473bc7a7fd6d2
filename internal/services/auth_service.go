package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finances-api/internal/dto"
	"finances-api/internal/models"
	"finances-api/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService handles login, token rotation and logout for owners
type AuthService struct {
	ownerRepo            repositories.OwnerRepositoryInterface
	refreshTokenRepo     repositories.RefreshTokenRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	passwordService      PasswordServiceInterface
	tokenService         TokenServiceInterface
	auditService         AuditServiceInterface
	metrics              MetricsRecorderInterface
	logger               *slog.Logger
}

func NewAuthService(
	ownerRepo repositories.OwnerRepositoryInterface,
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	passwordService PasswordServiceInterface,
	tokenService TokenServiceInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) AuthServiceInterface {
	return &AuthService{
		ownerRepo:            ownerRepo,
		refreshTokenRepo:     refreshTokenRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		passwordService:      passwordService,
		tokenService:         tokenService,
		auditService:         auditService,
		metrics:              metrics,
		logger:               logger,
	}
}

// Login authenticates an owner and returns a fresh token pair
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	owner, err := s.ownerRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrOwnerNotFound) {
			s.failedLogin(ctx, nil, req.Username, ipAddress, userAgent, "owner_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}

	if !s.passwordService.ComparePassword(req.Password, owner.PasswordHash) {
		s.failedLogin(ctx, &owner.ID, req.Username, ipAddress, userAgent, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.auditService.LogAuthEvent(ctx, &owner.ID, models.AuditActionLogin, ipAddress, userAgent, nil)
	s.metrics.IncrementCounter(MetricAuthEvent, map[string]string{"event_type": "login"})

	return tokens, nil
}

// RefreshTokens rotates a refresh token. The presented token is revoked and can't be used again.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	claims, err := s.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.failedRefresh(ctx, nil, ipAddress, userAgent, "invalid_token")
		return nil, ErrInvalidRefreshToken
	}

	ownerID, err := uuid.Parse(claims.OwnerID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.refreshTokenRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			s.failedRefresh(ctx, &ownerID, ipAddress, userAgent, "token_not_found")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if !stored.Usable() || stored.OwnerID != ownerID {
		s.failedRefresh(ctx, &ownerID, ipAddress, userAgent, "token_expired_or_revoked")
		return nil, ErrInvalidRefreshToken
	}

	owner, err := s.ownerRepo.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrOwnerNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}

	if err := s.refreshTokenRepo.Revoke(ctx, stored.ID); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			// a concurrent refresh got there first
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	tokens, err := s.generateTokens(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new tokens: %w", err)
	}

	s.auditService.LogAuthEvent(ctx, &owner.ID, models.AuditActionTokenRefresh, ipAddress, userAgent, nil)
	s.metrics.IncrementCounter(MetricAuthEvent, map[string]string{"event_type": "token_refresh"})

	return tokens, nil
}

// Logout blacklists the access token and revokes every refresh token of its owner
func (s *AuthService) Logout(ctx context.Context, accessToken, ipAddress, userAgent string) error {
	claims, err := s.tokenService.ValidateAccessToken(accessToken)
	if err != nil {
		return ErrInvalidToken
	}

	ownerID, err := uuid.Parse(claims.OwnerID)
	if err != nil {
		return ErrInvalidToken
	}

	expiry := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	if err := s.blacklistedTokenRepo.Create(ctx, &models.BlacklistedToken{
		JTI:       claims.ID,
		OwnerID:   ownerID,
		ExpiresAt: expiry,
	}); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if err := s.refreshTokenRepo.RevokeAllForOwner(ctx, ownerID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke refresh tokens",
			"error", err,
			"owner_id", ownerID)
	}

	s.auditService.LogAuthEvent(ctx, &ownerID, models.AuditActionLogout, ipAddress, userAgent, nil)
	s.metrics.IncrementCounter(MetricAuthEvent, map[string]string{"event_type": "logout"})

	return nil
}

// PurgeExpiredTokens drops refresh and blacklist rows past their expiry
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	refreshed, err := s.refreshTokenRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordGauge(MetricMaintenancePurged, float64(refreshed), map[string]string{"table": "refresh_tokens"})

	blacklisted, err := s.blacklistedTokenRepo.DeleteExpired(ctx)
	if err != nil {
		return refreshed, err
	}
	s.metrics.RecordGauge(MetricMaintenancePurged, float64(blacklisted), map[string]string{"table": "blacklisted_tokens"})

	return refreshed + blacklisted, nil
}

func (s *AuthService) generateTokens(ctx context.Context, owner *models.Owner) (*dto.TokenResponse, error) {
	accessToken, expiresAt, err := s.tokenService.GenerateAccessToken(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, refreshExpiresAt, err := s.tokenService.GenerateRefreshToken(owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.refreshTokenRepo.Create(ctx, &models.RefreshToken{
		OwnerID:   owner.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: refreshExpiresAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *AuthService) failedLogin(ctx context.Context, ownerID *uuid.UUID, username, ipAddress, userAgent, reason string) {
	s.auditService.LogAuthEvent(ctx, ownerID, models.AuditActionFailedLogin, ipAddress, userAgent, map[string]interface{}{
		"username": username,
		"reason":   reason,
	})
	s.metrics.IncrementCounter(MetricAuthEvent, map[string]string{"event_type": "failed_login"})
}

func (s *AuthService) failedRefresh(ctx context.Context, ownerID *uuid.UUID, ipAddress, userAgent, reason string) {
	s.auditService.LogAuthEvent(ctx, ownerID, models.AuditActionTokenRefresh, ipAddress, userAgent, map[string]interface{}{
		"reason": reason,
	})
	s.metrics.IncrementCounter(MetricAuthEvent, map[string]string{"event_type": "failed_refresh"})
}

func hashToken(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
