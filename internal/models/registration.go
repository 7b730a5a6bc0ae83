package models

import (
	"time"

	"gorm.io/gorm"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "PENDING"
	RegistrationApproved  RegistrationStatus = "APPROVED"
	RegistrationRejected  RegistrationStatus = "REJECTED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
	RegistrationWaitlist  RegistrationStatus = "WAITLIST"
	RegistrationAttended  RegistrationStatus = "ATTENDED"
	RegistrationAbsent    RegistrationStatus = "ABSENT"
)

// Terminal reports whether no further transition is possible from s.
func (s RegistrationStatus) Terminal() bool {
	switch s {
	case RegistrationRejected, RegistrationCancelled, RegistrationAttended, RegistrationAbsent:
		return true
	}
	return false
}

// ActiveRegistrationStatuses are the states that hold or contend for a
// seat. At most one registration per (user, activity) may be in one of
// these at a time.
var ActiveRegistrationStatuses = []RegistrationStatus{
	RegistrationPending,
	RegistrationApproved,
	RegistrationWaitlist,
}

type Registration struct {
	gorm.Model
	UserID       uint               `json:"user_id" gorm:"index:idx_user_activity"`
	User         User               `json:"user" gorm:"foreignKey:UserID"`
	ActivityID   uint               `json:"activity_id" gorm:"index:idx_user_activity"`
	Activity     Activity           `json:"activity" gorm:"foreignKey:ActivityID"`
	Status       RegistrationStatus `json:"status" gorm:"index"`
	RegisteredAt time.Time          `json:"registered_at"` // waitlist FIFO key
}
