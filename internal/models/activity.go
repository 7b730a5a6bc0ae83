package models

import (
	"time"

	"gorm.io/gorm"
)

type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "PENDING"
	ActivityPublished ActivityStatus = "PUBLISHED"
	ActivityCancelled ActivityStatus = "CANCELLED"
	ActivityCompleted ActivityStatus = "COMPLETED"
	ActivityDeleted   ActivityStatus = "DELETED"
)

type Activity struct {
	gorm.Model
	OrganizerID uint           `json:"organizer_id" gorm:"index"`
	Organizer   User           `json:"organizer" gorm:"foreignKey:OrganizerID"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Capacity    int            `json:"capacity"` // 0 means unlimited
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	Status      ActivityStatus `json:"status" gorm:"index;default:PENDING"`
}
