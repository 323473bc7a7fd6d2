package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9@.+_-]{1,150}$`)
)

// Owner is the principal that holds accounts. Deleting an owner removes its accounts.
type Owner struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string    `gorm:"type:varchar(150);not null" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150);not null" json:"last_name"`
	Role         string    `gorm:"type:varchar(20);not null;default:'owner'" json:"role"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (o *Owner) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	if o.Role == "" {
		o.Role = RoleOwner
	}

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}

	return o.Validate()
}

func (o *Owner) BeforeUpdate(tx *gorm.DB) error {
	// map-based updates carry only the changed columns
	if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
		return nil
	}

	o.UpdatedAt = time.Now().UTC()
	return o.Validate()
}

func (o *Owner) Validate() error {
	if o.Username == "" {
		return errors.New("username is required")
	}

	if !usernameRegex.MatchString(o.Username) {
		return errors.New("invalid username format")
	}

	if o.Email == "" {
		return errors.New("email is required")
	}

	if !emailRegex.MatchString(o.Email) {
		return errors.New("invalid email format")
	}

	if strings.TrimSpace(o.FirstName) == "" {
		return errors.New("first name is required")
	}

	if strings.TrimSpace(o.LastName) == "" {
		return errors.New("last name is required")
	}

	if o.Role != RoleOwner && o.Role != RoleAdmin {
		return fmt.Errorf("invalid role: %s", o.Role)
	}

	return nil
}

func (o *Owner) FullName() string {
	return fmt.Sprintf("%s %s", o.FirstName, o.LastName)
}

func (o *Owner) IsAdmin() bool {
	return o.Role == RoleAdmin
}

func (o *Owner) TableName() string {
	return "owners"
}

// IsValidEmail reports whether s looks like an email address
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsValidUsername reports whether s is an acceptable username
func IsValidUsername(s string) bool {
	return usernameRegex.MatchString(s)
}
