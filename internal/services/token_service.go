package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"finances-api/internal/config"
	"finances-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	bearerPrefix = "bearer "
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token is expired")
	ErrInvalidIssuer     = errors.New("invalid issuer")
	ErrInvalidTokenType  = errors.New("invalid token type")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// TokenService issues and verifies the RS256 tokens of owner sessions.
// Access tokens carry the owner id and role; refresh tokens only the owner id.
type TokenService struct {
	cfg    config.JWTConfig
	parser *jwt.Parser
}

func NewTokenService(jwtConfig *config.JWTConfig) TokenServiceInterface {
	return &TokenService{
		cfg: *jwtConfig,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(jwtConfig.Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

func (ts *TokenService) GenerateAccessToken(owner *models.Owner) (string, time.Time, error) {
	if owner == nil {
		return "", time.Time{}, errors.New("owner cannot be nil")
	}

	claims := ts.newClaims(owner.Username, ts.cfg.AccessTokenDuration)
	claims.OwnerID = owner.ID.String()
	claims.Username = owner.Username
	claims.Role = owner.Role
	claims.TokenType = TokenTypeAccess

	return ts.sign(claims)
}

func (ts *TokenService) GenerateRefreshToken(ownerID uuid.UUID) (string, time.Time, error) {
	if ownerID == uuid.Nil {
		return "", time.Time{}, errors.New("owner ID cannot be nil")
	}

	claims := ts.newClaims(ownerID.String(), ts.cfg.RefreshTokenDuration)
	claims.OwnerID = ownerID.String()
	claims.TokenType = TokenTypeRefresh

	return ts.sign(claims)
}

func (ts *TokenService) ValidateAccessToken(tokenString string) (*models.CustomClaims, error) {
	return ts.verify(tokenString, TokenTypeAccess)
}

func (ts *TokenService) ValidateRefreshToken(tokenString string) (*models.CustomClaims, error) {
	return ts.verify(tokenString, TokenTypeRefresh)
}

// ExtractTokenFromHeader returns the token of a "Bearer <token>" header, any case
func (ts *TokenService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrInvalidAuthHeader
	}

	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

// GetJTI reads the token id without checking the signature
func (ts *TokenService) GetJTI(tokenString string) (string, error) {
	claims, err := ts.peek(tokenString)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

// GetTokenExpiry reads the expiry without checking the signature
func (ts *TokenService) GetTokenExpiry(tokenString string) (time.Time, error) {
	claims, err := ts.peek(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrInvalidToken
	}
	return claims.ExpiresAt.Time, nil
}

func (ts *TokenService) newClaims(subject string, ttl time.Duration) *models.CustomClaims {
	now := time.Now()
	return &models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.cfg.Issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (ts *TokenService) sign(claims *models.CustomClaims) (string, time.Time, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.cfg.PrivateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", claims.TokenType, err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (ts *TokenService) verify(tokenString, tokenType string) (*models.CustomClaims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	claims := &models.CustomClaims{}
	token, err := ts.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return ts.cfg.PublicKey, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, ErrInvalidIssuer
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !token.Valid:
		return nil, ErrInvalidToken
	}

	if claims.TokenType != tokenType {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

func (ts *TokenService) peek(tokenString string) (*models.CustomClaims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	claims := &models.CustomClaims{}
	if _, _, err := ts.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}
