package services

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBCryptCost        = 12
	DefaultMinPasswordLength = 8
	MaxPasswordLength        = 72 // bcrypt limitation
)

var (
	ErrPasswordEmpty      = errors.New("password cannot be empty")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrPasswordTooLong    = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	ErrPasswordAllNumeric = errors.New("password must not be entirely numeric")
	ErrPasswordNoLetter   = errors.New("password must contain at least one letter")
	ErrPasswordNoNumber   = errors.New("password must contain at least one number")

	letterRegex = regexp.MustCompile(`[A-Za-z]`)
	numberRegex = regexp.MustCompile(`[0-9]`)
	digitsOnly  = regexp.MustCompile(`^[0-9]+$`)
)

// PasswordService handles password hashing and validation
type PasswordService struct {
	cost      int
	minLength int
}

// NewPasswordService creates a password service. Non-positive arguments fall back to the defaults.
func NewPasswordService(cost, minLength int) PasswordServiceInterface {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBCryptCost
	}
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}

	return &PasswordService{
		cost:      cost,
		minLength: minLength,
	}
}

// ValidatePassword checks if a password meets the security requirements
func (ps *PasswordService) ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}

	if len(password) < ps.minLength {
		return fmt.Errorf("%w: at least %d characters required", ErrPasswordTooShort, ps.minLength)
	}

	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	if digitsOnly.MatchString(password) {
		return ErrPasswordAllNumeric
	}

	if !letterRegex.MatchString(password) {
		return ErrPasswordNoLetter
	}

	if !numberRegex.MatchString(password) {
		return ErrPasswordNoNumber
	}

	return nil
}

// HashPassword validates and hashes a password using bcrypt
func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), ps.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// ComparePassword compares a plain password with a hashed password
func (ps *PasswordService) ComparePassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
