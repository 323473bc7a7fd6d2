package models

import "github.com/golang-jwt/jwt/v5"

// CustomClaims are the claims carried by access tokens
type CustomClaims struct {
	jwt.RegisteredClaims
	OwnerID   string `json:"owner_id"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
}
