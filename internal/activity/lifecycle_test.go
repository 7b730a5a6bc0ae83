package activity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/campus-hub/activity-api/internal/models"
	"github.com/campus-hub/activity-api/internal/permission"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Activity{}, &models.Registration{})
	if err != nil {
		t.Fatalf("failed to auto migrate: %v", err)
	}
	return db
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.ActivityStatus
		want     bool
	}{
		{models.ActivityPending, models.ActivityPublished, true},
		{models.ActivityPending, models.ActivityDeleted, true},
		{models.ActivityPending, models.ActivityCompleted, false},
		{models.ActivityPublished, models.ActivityCancelled, true},
		{models.ActivityPublished, models.ActivityCompleted, true},
		{models.ActivityPublished, models.ActivityPending, false},
		{models.ActivityCancelled, models.ActivityDeleted, true},
		{models.ActivityCancelled, models.ActivityPublished, false},
		{models.ActivityCompleted, models.ActivityDeleted, true},
		{models.ActivityDeleted, models.ActivityPublished, false},
		{models.ActivityDeleted, models.ActivityDeleted, false},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	newMachine := func(t *testing.T, db *gorm.DB) *Machine {
		t.Helper()
		return NewMachine(db, permission.NewDBChecker(db), nil)
	}

	createActivity := func(t *testing.T, db *gorm.DB, organizerID uint, status models.ActivityStatus) models.Activity {
		t.Helper()
		activity := models.Activity{
			OrganizerID: organizerID,
			Title:       "Open Mic Night",
			Capacity:    20,
			StartTime:   time.Now().Add(24 * time.Hour),
			EndTime:     time.Now().Add(26 * time.Hour),
			Status:      status,
		}
		if err := db.Create(&activity).Error; err != nil {
			t.Fatalf("failed to create activity: %v", err)
		}
		return activity
	}

	t.Run("PublishPending", func(t *testing.T) {
		db := setupDB(t)
		machine := newMachine(t, db)
		organizer := models.User{DiscordID: "org", Username: "org", Role: models.RoleStudent}
		db.Create(&organizer)
		activity := createActivity(t, db, organizer.ID, models.ActivityPending)

		updated, err := machine.Transition(ctx, activity.ID, models.ActivityPublished, organizer.ID)
		if err != nil {
			t.Fatalf("Transition returned error: %v", err)
		}
		if updated.Status != models.ActivityPublished {
			t.Errorf("expected PUBLISHED, got %s", updated.Status)
		}

		var stored models.Activity
		db.First(&stored, activity.ID)
		if stored.Status != models.ActivityPublished {
			t.Errorf("expected stored status PUBLISHED, got %s", stored.Status)
		}
	})

	t.Run("DeletedIsTerminal", func(t *testing.T) {
		db := setupDB(t)
		machine := newMachine(t, db)
		organizer := models.User{DiscordID: "org", Username: "org"}
		db.Create(&organizer)
		activity := createActivity(t, db, organizer.ID, models.ActivityDeleted)

		_, err := machine.Transition(ctx, activity.ID, models.ActivityPublished, organizer.ID)
		if !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("IllegalEdge", func(t *testing.T) {
		db := setupDB(t)
		machine := newMachine(t, db)
		organizer := models.User{DiscordID: "org", Username: "org"}
		db.Create(&organizer)
		activity := createActivity(t, db, organizer.ID, models.ActivityPending)

		_, err := machine.Transition(ctx, activity.ID, models.ActivityCompleted, organizer.ID)
		if !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		// The error names the legal edges out of the current status.
		if err == nil || !strings.Contains(err.Error(), string(models.ActivityPublished)) {
			t.Errorf("expected allowed transitions in error, got %v", err)
		}
	})

	t.Run("MissingActivity", func(t *testing.T) {
		db := setupDB(t)
		machine := newMachine(t, db)
		organizer := models.User{DiscordID: "org", Username: "org"}
		db.Create(&organizer)

		_, err := machine.Transition(ctx, 9999, models.ActivityPublished, organizer.ID)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		db := setupDB(t)
		machine := newMachine(t, db)
		organizer := models.User{DiscordID: "org", Username: "org"}
		db.Create(&organizer)
		bystander := models.User{DiscordID: "bystander", Username: "bystander", Role: models.RoleStudent}
		db.Create(&bystander)
		activity := createActivity(t, db, organizer.ID, models.ActivityPending)

		_, err := machine.Transition(ctx, activity.ID, models.ActivityPublished, bystander.ID)
		if !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("AdminMayTransition", func(t *testing.T) {
		db := setupDB(t)
		machine := newMachine(t, db)
		organizer := models.User{DiscordID: "org", Username: "org"}
		db.Create(&organizer)
		admin := models.User{DiscordID: "admin", Username: "admin", Role: models.RoleAdmin}
		db.Create(&admin)
		activity := createActivity(t, db, organizer.ID, models.ActivityPublished)

		updated, err := machine.Transition(ctx, activity.ID, models.ActivityCancelled, admin.ID)
		if err != nil {
			t.Fatalf("Transition returned error: %v", err)
		}
		if updated.Status != models.ActivityCancelled {
			t.Errorf("expected CANCELLED, got %s", updated.Status)
		}
	})

	t.Run("CancellationDoesNotCascade", func(t *testing.T) {
		db := setupDB(t)
		machine := newMachine(t, db)
		organizer := models.User{DiscordID: "org", Username: "org"}
		db.Create(&organizer)
		student := models.User{DiscordID: "student", Username: "student"}
		db.Create(&student)
		activity := createActivity(t, db, organizer.ID, models.ActivityPublished)

		reg := models.Registration{
			UserID: student.ID, ActivityID: activity.ID,
			Status: models.RegistrationApproved, RegisteredAt: time.Now(),
		}
		db.Create(&reg)

		if _, err := machine.Transition(ctx, activity.ID, models.ActivityCancelled, organizer.ID); err != nil {
			t.Fatalf("Transition returned error: %v", err)
		}

		var stored models.Registration
		db.First(&stored, reg.ID)
		if stored.Status != models.RegistrationApproved {
			t.Errorf("expected registration untouched (APPROVED), got %s", stored.Status)
		}
	})
}
