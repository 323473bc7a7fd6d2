package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_Usable(t *testing.T) {
	past := time.Now().UTC().Add(-time.Minute)

	tests := []struct {
		name    string
		token   RefreshToken
		expired bool
		revoked bool
		usable  bool
	}{
		{
			name:   "active",
			token:  RefreshToken{ExpiresAt: time.Now().UTC().Add(time.Hour)},
			usable: true,
		},
		{
			name:    "expired",
			token:   RefreshToken{ExpiresAt: time.Now().UTC().Add(-time.Hour)},
			expired: true,
		},
		{
			name:    "revoked",
			token:   RefreshToken{ExpiresAt: time.Now().UTC().Add(time.Hour), RevokedAt: &past},
			revoked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.token.IsExpired())
			assert.Equal(t, tt.revoked, tt.token.IsRevoked())
			assert.Equal(t, tt.usable, tt.token.Usable())
		})
	}
}

func TestRefreshToken_Revoke(t *testing.T) {
	token := RefreshToken{OwnerID: uuid.New(), ExpiresAt: time.Now().UTC().Add(time.Hour)}

	token.Revoke()

	assert.NotNil(t, token.RevokedAt)
	assert.False(t, token.Usable())
	assert.Equal(t, "refresh_tokens", token.TableName())
}
