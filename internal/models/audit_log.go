package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditActionLogin        = "login"
	AuditActionLogout       = "logout"
	AuditActionFailedLogin  = "failed_login"
	AuditActionTokenRefresh = "token_refresh"
	AuditActionCreate       = "create"
	AuditActionUpdate       = "update"
	AuditActionDelete       = "delete"
	AuditActionReconcile    = "reconcile"
)

const (
	AuditResourceOwner       = "owner"
	AuditResourceAccount     = "account"
	AuditResourceCategory    = "category"
	AuditResourceBudget      = "budget"
	AuditResourceTransaction = "transaction"
)

// AuditLog is a persisted record of who changed what in the ledger
type AuditLog struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID    *uuid.UUID    `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Action     string        `gorm:"type:varchar(100);not null;index" json:"action"`
	Resource   string        `gorm:"type:varchar(100);not null" json:"resource"`
	ResourceID string        `gorm:"type:varchar(255)" json:"resource_id,omitempty"`
	IPAddress  string        `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent  string        `gorm:"type:text" json:"user_agent,omitempty"`
	Metadata   AuditMetadata `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;index" json:"created_at"`

	Owner *Owner `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}

func (al *AuditLog) SetMetadata(key string, value interface{}) {
	if al.Metadata == nil {
		al.Metadata = AuditMetadata{}
	}
	al.Metadata[key] = value
}

// GetMetadata returns the value under key, or fallback when it was not recorded
func (al *AuditLog) GetMetadata(key string, fallback interface{}) interface{} {
	if value, ok := al.Metadata[key]; ok {
		return value
	}
	return fallback
}

func (al *AuditLog) TableName() string {
	return "audit_logs"
}

func (al *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if al.ID == uuid.Nil {
		al.ID = uuid.New()
	}
	if al.CreatedAt.IsZero() {
		al.CreatedAt = time.Now().UTC()
	}
	return nil
}

// AuditMetadata holds the before/after values of a change. It is stored as
// JSON text so the same column works on postgres and sqlite.
type AuditMetadata map[string]interface{}

func (m AuditMetadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func (m *AuditMetadata) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AuditMetadata", value)
	}

	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}
