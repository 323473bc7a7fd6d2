package config

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

const rsaKeyBits = 2048

// loadJWTKeys reads the signing pair from JWT_PRIVATE_KEY and JWT_PUBLIC_KEY,
// base64 encoded PEM. Outside production a missing pair is replaced by a fresh
// one, which invalidates every session on restart.
func loadJWTKeys(production bool) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateB64 := os.Getenv("JWT_PRIVATE_KEY")
	publicB64 := os.Getenv("JWT_PUBLIC_KEY")

	if privateB64 != "" && publicB64 != "" {
		return decodeKeyPair(privateB64, publicB64)
	}
	if production {
		return nil, nil, errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set in production")
	}

	slog.Info("generating an ephemeral RSA key pair for JWT signing")
	return GenerateRSAKeyPair()
}

func decodeKeyPair(privateB64, publicB64 string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privatePEM, err := base64.StdEncoding.DecodeString(privateB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode JWT_PRIVATE_KEY: %w", err)
	}
	publicPEM, err := base64.StdEncoding.DecodeString(publicB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode JWT_PUBLIC_KEY: %w", err)
	}

	// accepts PKCS1 and PKCS8 encodings
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	if !privateKey.PublicKey.Equal(publicKey) {
		return nil, nil, errors.New("JWT_PUBLIC_KEY does not match JWT_PRIVATE_KEY")
	}
	return privateKey, publicKey, nil
}

// GenerateRSAKeyPair creates a new signing pair
func GenerateRSAKeyPair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, &privateKey.PublicKey, nil
}
