package activity

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/campus-hub/activity-api/internal/models"
	"github.com/campus-hub/activity-api/internal/notifier"
	"github.com/campus-hub/activity-api/internal/permission"
	"gorm.io/gorm"
)

// transitions is the full edge set of the activity lifecycle. DELETED
// is terminal; activities are never physically removed.
var transitions = map[models.ActivityStatus][]models.ActivityStatus{
	models.ActivityPending:   {models.ActivityPublished, models.ActivityDeleted},
	models.ActivityPublished: {models.ActivityCancelled, models.ActivityCompleted},
	models.ActivityCancelled: {models.ActivityDeleted},
	models.ActivityCompleted: {models.ActivityDeleted},
	models.ActivityDeleted:   {},
}

// CanTransition reports whether from → to is an allowed edge.
func CanTransition(from, to models.ActivityStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the outgoing edges of a status.
func AllowedTransitions(from models.ActivityStatus) []models.ActivityStatus {
	return transitions[from]
}

// Machine validates and applies activity status transitions.
type Machine struct {
	db       *gorm.DB
	perms    permission.Checker
	notifier notifier.Notifier
}

func NewMachine(db *gorm.DB, perms permission.Checker, n notifier.Notifier) *Machine {
	return &Machine{db: db, perms: perms, notifier: n}
}

// Transition moves an activity to newStatus on behalf of actorID.
// Registrations against the activity are left untouched: cancelling an
// activity does not cascade onto its registrations, it only stops new
// ones from being admitted.
func (m *Machine) Transition(ctx context.Context, activityID uint, newStatus models.ActivityStatus, actorID uint) (*models.Activity, error) {
	var activity models.Activity
	if err := m.db.WithContext(ctx).First(&activity, activityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	decision, err := m.perms.CanModerate(ctx, actorID, activityID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrPermissionDenied
	}

	if !CanTransition(activity.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s cannot move to %s (allowed: %v)",
			models.ErrInvalidTransition, activity.Status, newStatus, AllowedTransitions(activity.Status))
	}

	// Guard on the previous status so two racing transitions cannot
	// both apply: the loser matches zero rows.
	res := m.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ? AND status = ?", activityID, activity.Status).
		Update("status", newStatus)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrConflict
	}
	activity.Status = newStatus

	m.notifyOrganizer(ctx, activity, fmt.Sprintf("Activity status changed to %s", newStatus))

	return &activity, nil
}

func (m *Machine) notifyOrganizer(ctx context.Context, activity models.Activity, message string) {
	if m.notifier == nil {
		return
	}
	var organizer models.User
	if err := m.db.WithContext(ctx).First(&organizer, activity.OrganizerID).Error; err != nil {
		log.Printf("Failed to load organizer %d for notification: %v", activity.OrganizerID, err)
		return
	}
	if err := m.notifier.Notify(organizer, activity, message); err != nil {
		log.Printf("Failed to notify organizer %d: %v", activity.OrganizerID, err)
	}
}
