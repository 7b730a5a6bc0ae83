package registration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/campus-hub/activity-api/internal/models"
	"github.com/campus-hub/activity-api/internal/notifier"
	"github.com/campus-hub/activity-api/internal/permission"
	"gorm.io/gorm"
)

// errCapacityRace signals that a capacity-consuming write was observed
// to overshoot after the fact. It only ever triggers a transaction
// retry and is never returned to callers.
var errCapacityRace = errors.New("capacity race detected")

const defaultMaxRetries = 3

// Engine is the registration admission engine. It owns every mutation
// of registration status: admission (PENDING vs WAITLIST), the
// approve/reject/cancel workflow, waitlist promotion, and attendance
// marking. All seat accounting goes through it.
type Engine struct {
	db         *gorm.DB
	perms      permission.Checker
	notifier   notifier.Notifier
	locks      *activityLocks
	now        func() time.Time
	maxRetries int
}

func NewEngine(db *gorm.DB, perms permission.Checker, n notifier.Notifier) *Engine {
	return &Engine{
		db:         db,
		perms:      perms,
		notifier:   n,
		locks:      newActivityLocks(),
		now:        time.Now,
		maxRetries: defaultMaxRetries,
	}
}

// Register admits a user to an activity. The activity must be
// PUBLISHED and the user must not already hold an active registration.
// If the activity is full (capacity > 0 and APPROVED count at
// capacity) the registration is queued as WAITLIST, otherwise it
// enters the approval queue as PENDING.
func (e *Engine) Register(ctx context.Context, userID, activityID uint) (*models.Registration, error) {
	mu := e.locks.get(activityID)
	mu.Lock()
	defer mu.Unlock()

	var reg models.Registration
	var activity models.Activity

	err := e.retry(func() error {
		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&activity, activityID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return err
			}
			if activity.Status != models.ActivityPublished {
				return models.ErrActivityNotOpen
			}

			var existing models.Registration
			err := tx.Where("user_id = ? AND activity_id = ? AND status IN ?",
				userID, activityID, models.ActiveRegistrationStatuses).
				First(&existing).Error
			if err == nil {
				return models.ErrAlreadyRegistered
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			approved, err := countApproved(tx, activityID)
			if err != nil {
				return err
			}

			status := models.RegistrationPending
			if activity.Capacity > 0 && approved >= int64(activity.Capacity) {
				status = models.RegistrationWaitlist
			}

			reg = models.Registration{
				UserID:       userID,
				ActivityID:   activityID,
				Status:       status,
				RegisteredAt: e.now().UTC(),
			}
			if err := tx.Create(&reg).Error; err != nil {
				return err
			}

			return appendHistory(tx, &reg, "", userID)
		})
	})
	if err != nil {
		return nil, err
	}

	e.notifyUser(ctx, activity.OrganizerID, activity,
		fmt.Sprintf("New registration (%s) from user %d", reg.Status, userID))

	return &reg, nil
}

// Approve moves a PENDING registration to APPROVED on behalf of a
// moderator. Admission to PENDING never reserved a seat, so capacity is
// re-checked here: if the activity filled up in the meantime the
// registration degrades to WAITLIST instead of failing.
func (e *Engine) Approve(ctx context.Context, registrationID, actorID uint) (*models.Registration, error) {
	reg, err := e.loadForModeration(ctx, registrationID, actorID, models.RegistrationPending)
	if err != nil {
		return nil, err
	}

	mu := e.locks.get(reg.ActivityID)
	mu.Lock()
	defer mu.Unlock()

	var activity models.Activity

	err = e.retry(func() error {
		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(reg, registrationID).Error; err != nil {
				return err
			}
			if reg.Status != models.RegistrationPending {
				return models.ErrInvalidTransition
			}
			if err := tx.First(&activity, reg.ActivityID).Error; err != nil {
				return err
			}

			approved, err := countApproved(tx, reg.ActivityID)
			if err != nil {
				return err
			}

			from := reg.Status
			if activity.Capacity > 0 && approved >= int64(activity.Capacity) {
				reg.Status = models.RegistrationWaitlist
			} else {
				reg.Status = models.RegistrationApproved
			}
			if err := tx.Model(reg).Update("status", reg.Status).Error; err != nil {
				return err
			}
			if err := appendHistory(tx, reg, from, actorID); err != nil {
				return err
			}

			// Ground-truth recount after the write. Under the
			// per-activity mutex this never trips in-process; it
			// catches a second process sharing the database.
			if reg.Status == models.RegistrationApproved && activity.Capacity > 0 {
				approved, err := countApproved(tx, reg.ActivityID)
				if err != nil {
					return err
				}
				if approved > int64(activity.Capacity) {
					return errCapacityRace
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	e.notifyUser(ctx, reg.UserID, activity,
		fmt.Sprintf("Your registration is now %s", reg.Status))

	return reg, nil
}

// Reject moves a PENDING or APPROVED registration to REJECTED and, in
// the same transaction, promotes the oldest waitlisted registration
// for the activity back into the approval queue.
func (e *Engine) Reject(ctx context.Context, registrationID, actorID uint) (*models.Registration, error) {
	reg, err := e.loadForModeration(ctx, registrationID, actorID,
		models.RegistrationPending, models.RegistrationApproved)
	if err != nil {
		return nil, err
	}

	mu := e.locks.get(reg.ActivityID)
	mu.Lock()
	defer mu.Unlock()

	var activity models.Activity
	var promoted *models.Registration

	err = e.retry(func() error {
		promoted = nil
		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(reg, registrationID).Error; err != nil {
				return err
			}
			if reg.Status != models.RegistrationPending && reg.Status != models.RegistrationApproved {
				return models.ErrInvalidTransition
			}
			if err := tx.First(&activity, reg.ActivityID).Error; err != nil {
				return err
			}

			from := reg.Status
			reg.Status = models.RegistrationRejected
			if err := tx.Model(reg).Update("status", reg.Status).Error; err != nil {
				return err
			}
			if err := appendHistory(tx, reg, from, actorID); err != nil {
				return err
			}

			var err error
			promoted, err = promoteOldestWaitlisted(tx, reg.ActivityID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	e.notifyUser(ctx, reg.UserID, activity, "Your registration was rejected")
	if promoted != nil {
		e.notifyUser(ctx, promoted.UserID, activity,
			"A spot opened up: your registration moved off the waitlist and awaits approval")
	}

	return reg, nil
}

// Cancel withdraws the caller's own active registration for an
// activity. PENDING and WAITLIST registrations cancel at any time; an
// APPROVED registration cancels only before the activity starts, and
// doing so frees a seat, so the oldest waitlisted registration is
// promoted in the same transaction.
func (e *Engine) Cancel(ctx context.Context, userID, activityID uint) (*models.Registration, error) {
	mu := e.locks.get(activityID)
	mu.Lock()
	defer mu.Unlock()

	var reg models.Registration
	var activity models.Activity
	var promoted *models.Registration

	err := e.retry(func() error {
		promoted = nil
		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&activity, activityID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return err
			}

			err := tx.Where("user_id = ? AND activity_id = ? AND status IN ?",
				userID, activityID, models.ActiveRegistrationStatuses).
				First(&reg).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return err
			}

			heldSeat := reg.Status == models.RegistrationApproved
			if heldSeat && !e.now().Before(activity.StartTime) {
				return models.ErrInvalidTransition
			}

			from := reg.Status
			reg.Status = models.RegistrationCancelled
			if err := tx.Model(&reg).Update("status", reg.Status).Error; err != nil {
				return err
			}
			if err := appendHistory(tx, &reg, from, userID); err != nil {
				return err
			}

			if heldSeat {
				promoted, err = promoteOldestWaitlisted(tx, activityID)
				return err
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	e.notifyUser(ctx, activity.OrganizerID, activity,
		fmt.Sprintf("User %d cancelled their registration", userID))
	if promoted != nil {
		e.notifyUser(ctx, promoted.UserID, activity,
			"A spot opened up: your registration moved off the waitlist and awaits approval")
	}

	return &reg, nil
}

// MarkAttended records that an approved registrant showed up. Only
// valid after the activity has ended.
func (e *Engine) MarkAttended(ctx context.Context, registrationID, actorID uint) (*models.Registration, error) {
	return e.markAttendance(ctx, registrationID, actorID, models.RegistrationAttended)
}

// MarkAbsent records a no-show. Only valid after the activity has ended.
func (e *Engine) MarkAbsent(ctx context.Context, registrationID, actorID uint) (*models.Registration, error) {
	return e.markAttendance(ctx, registrationID, actorID, models.RegistrationAbsent)
}

func (e *Engine) markAttendance(ctx context.Context, registrationID, actorID uint, to models.RegistrationStatus) (*models.Registration, error) {
	reg, err := e.loadForModeration(ctx, registrationID, actorID, models.RegistrationApproved)
	if err != nil {
		return nil, err
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(reg, registrationID).Error; err != nil {
			return err
		}
		if reg.Status != models.RegistrationApproved {
			return models.ErrInvalidTransition
		}

		var activity models.Activity
		if err := tx.First(&activity, reg.ActivityID).Error; err != nil {
			return err
		}
		if e.now().Before(activity.EndTime) {
			return models.ErrInvalidTransition
		}

		from := reg.Status
		reg.Status = to
		if err := tx.Model(reg).Update("status", reg.Status).Error; err != nil {
			return err
		}
		return appendHistory(tx, reg, from, actorID)
	})
	if err != nil {
		return nil, err
	}

	return reg, nil
}

// loadForModeration fetches a registration, rejects it unless its
// status is one the operation accepts, and only then verifies the
// actor may moderate its activity. The status is re-checked inside the
// caller's transaction; this pre-check fixes the error order for
// callers: NotFound, then InvalidTransition, then PermissionDenied.
func (e *Engine) loadForModeration(ctx context.Context, registrationID, actorID uint, allowed ...models.RegistrationStatus) (*models.Registration, error) {
	var reg models.Registration
	if err := e.db.WithContext(ctx).First(&reg, registrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	ok := false
	for _, s := range allowed {
		if reg.Status == s {
			ok = true
			break
		}
	}
	if !ok {
		return nil, models.ErrInvalidTransition
	}

	decision, err := e.perms.CanModerate(ctx, actorID, reg.ActivityID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrPermissionDenied
	}

	return &reg, nil
}

// retry runs fn up to maxRetries times, retrying only on the internal
// capacity-race signal. Exhausting retries surfaces ErrConflict.
func (e *Engine) retry(fn func() error) error {
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		err := fn()
		if errors.Is(err, errCapacityRace) {
			continue
		}
		return err
	}
	return models.ErrConflict
}

func (e *Engine) notifyUser(ctx context.Context, userID uint, activity models.Activity, message string) {
	if e.notifier == nil {
		return
	}
	var user models.User
	if err := e.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		log.Printf("Failed to load user %d for notification: %v", userID, err)
		return
	}
	if err := e.notifier.Notify(user, activity, message); err != nil {
		log.Printf("Failed to notify user %d: %v", userID, err)
	}
}

// countApproved recomputes the APPROVED count from the registrations
// table. The count is never cached; it is always derived inside the
// same transaction as the write it gates.
func countApproved(tx *gorm.DB, activityID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Registration{}).
		Where("activity_id = ? AND status = ?", activityID, models.RegistrationApproved).
		Count(&count).Error
	return count, err
}

// promoteOldestWaitlisted moves the oldest WAITLIST registration for an
// activity back to PENDING. Promotion re-enters the approval queue, it
// never grants a seat directly. Returns nil when the waitlist is empty.
func promoteOldestWaitlisted(tx *gorm.DB, activityID uint) (*models.Registration, error) {
	var oldest models.Registration
	err := tx.Where("activity_id = ? AND status = ?", activityID, models.RegistrationWaitlist).
		Order("registered_at ASC").
		Order("id ASC").
		First(&oldest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	from := oldest.Status
	oldest.Status = models.RegistrationPending
	if err := tx.Model(&oldest).Update("status", oldest.Status).Error; err != nil {
		return nil, err
	}
	if err := appendHistory(tx, &oldest, from, 0); err != nil {
		return nil, err
	}
	return &oldest, nil
}

func appendHistory(tx *gorm.DB, reg *models.Registration, from models.RegistrationStatus, actorID uint) error {
	history := models.RegistrationHistory{
		RegistrationID: reg.ID,
		UserID:         reg.UserID,
		ActivityID:     reg.ActivityID,
		FromStatus:     from,
		ToStatus:       reg.Status,
		ActorID:        actorID,
	}
	return tx.Create(&history).Error
}
