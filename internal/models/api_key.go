package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKeyPrefix marks campus integration keys so a leaked credential is
// recognizable in logs and can be revoked quickly.
const APIKeyPrefix = "cak_"

// APIKey authenticates campus integrations such as attendance scanners
// and lobby displays that call the API without a browser session. A key
// acts on behalf of the user who issued it and always expires; the full
// value is shown once at creation and masked afterwards.
type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id"`
	User       User       `json:"user"`
	Key        string     `json:"key" gorm:"uniqueIndex"`
	Label      string     `json:"label"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// Expired reports whether the key can no longer authenticate.
func (k *APIKey) Expired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}

// Masked returns the display form of the key: prefix plus the last four
// characters.
func (k *APIKey) Masked() string {
	if len(k.Key) <= 4 {
		return k.Key
	}
	return APIKeyPrefix + "..." + k.Key[len(k.Key)-4:]
}
