package permission

import (
	"context"
	"errors"

	"github.com/campus-hub/activity-api/internal/models"
	"gorm.io/gorm"
)

// Decision is the answer to "can this user moderate that activity".
type Decision struct {
	Allowed bool
	Reason  string
}

// Checker answers moderation questions for the admission engine and the
// activity lifecycle machine.
type Checker interface {
	CanModerate(ctx context.Context, userID, activityID uint) (Decision, error)
}

// DBChecker allows the activity's organizer plus any user whose role
// carries the moderation capability (teachers and admins).
type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) CanModerate(ctx context.Context, userID, activityID uint) (Decision, error) {
	var activity models.Activity
	if err := c.db.WithContext(ctx).First(&activity, activityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, models.ErrNotFound
		}
		return Decision{}, err
	}

	if activity.OrganizerID == userID {
		return Decision{Allowed: true, Reason: "organizer"}, nil
	}

	var user models.User
	if err := c.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{Allowed: false, Reason: "unknown user"}, nil
		}
		return Decision{}, err
	}

	if user.Role.Can(models.CapModerateRegistrations) {
		return Decision{Allowed: true, Reason: string(user.Role)}, nil
	}

	return Decision{Allowed: false, Reason: "not an organizer, teacher, or admin"}, nil
}
