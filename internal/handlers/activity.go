package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/campus-hub/activity-api/internal/activity"
	"github.com/campus-hub/activity-api/internal/auth"
	"github.com/campus-hub/activity-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type ActivityHandler struct {
	db          *gorm.DB
	machine     *activity.Machine
	authHandler *auth.AuthHandler
}

func NewActivityHandler(db *gorm.DB, machine *activity.Machine, authHandler *auth.AuthHandler) *ActivityHandler {
	return &ActivityHandler{db: db, machine: machine, authHandler: authHandler}
}

type ActivityResponse struct {
	ID          uint                  `json:"id"`
	OrganizerID uint                  `json:"organizer_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Location    string                `json:"location"`
	Capacity    int                   `json:"capacity"`
	StartTime   time.Time             `json:"start_time"`
	EndTime     time.Time             `json:"end_time"`
	Status      models.ActivityStatus `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
}

func toActivityResponse(a *models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		OrganizerID: a.OrganizerID,
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Capacity:    a.Capacity,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
	}
}

type CreateActivityRequest struct {
	auth.AuthInput
	Body struct {
		Title       string    `json:"title" doc:"Activity title" required:"true"`
		Description string    `json:"description" doc:"Activity description"`
		Location    string    `json:"location" doc:"Where the activity takes place"`
		Capacity    int       `json:"capacity" doc:"Maximum approved registrations, 0 means unlimited" minimum:"0"`
		StartTime   time.Time `json:"start_time" doc:"When the activity starts" required:"true"`
		EndTime     time.Time `json:"end_time" doc:"When the activity ends" required:"true"`
	}
}

type ActivityOutput struct {
	Body ActivityResponse
}

func (h *ActivityHandler) HandleCreateActivity(ctx context.Context, input *CreateActivityRequest) (*ActivityOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if input.Body.StartTime.After(input.Body.EndTime) {
		return nil, huma.Error400BadRequest("Start time cannot be after end time")
	}

	newActivity := models.Activity{
		OrganizerID: userID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Location:    input.Body.Location,
		Capacity:    input.Body.Capacity,
		StartTime:   input.Body.StartTime,
		EndTime:     input.Body.EndTime,
		Status:      models.ActivityPending,
	}

	if err := h.db.Create(&newActivity).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create activity: " + err.Error())
	}

	return &ActivityOutput{Body: toActivityResponse(&newActivity)}, nil
}

type GetActivityRequest struct {
	ID uint `path:"id"`
}

func (h *ActivityHandler) HandleGetActivity(ctx context.Context, input *GetActivityRequest) (*ActivityOutput, error) {
	var a models.Activity
	if err := h.db.First(&a, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Activity not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load activity")
	}
	return &ActivityOutput{Body: toActivityResponse(&a)}, nil
}

type TransitionActivityRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		Status models.ActivityStatus `json:"status" doc:"Target lifecycle status" required:"true" enum:"PUBLISHED,CANCELLED,COMPLETED,DELETED"`
	}
}

func (h *ActivityHandler) HandleTransition(ctx context.Context, input *TransitionActivityRequest) (*ActivityOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	updated, err := h.machine.Transition(ctx, input.ID, input.Body.Status, userID)
	if err != nil {
		return nil, mapDomainError(err)
	}

	return &ActivityOutput{Body: toActivityResponse(updated)}, nil
}
