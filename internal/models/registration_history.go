package models

import (
	"gorm.io/gorm"
)

// RegistrationHistory is an append-only audit trail of registration
// status changes, written in the same transaction as the change itself.
type RegistrationHistory struct {
	gorm.Model
	RegistrationID uint               `json:"registration_id" gorm:"index"`
	UserID         uint               `json:"user_id"`
	ActivityID     uint               `json:"activity_id" gorm:"index"`
	FromStatus     RegistrationStatus `json:"from_status"` // empty on creation
	ToStatus       RegistrationStatus `json:"to_status"`
	ActorID        uint               `json:"actor_id"` // 0 when system-initiated (promotion)
}
