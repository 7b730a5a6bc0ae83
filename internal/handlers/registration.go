package handlers

import (
	"context"
	"time"

	"github.com/campus-hub/activity-api/internal/auth"
	"github.com/campus-hub/activity-api/internal/models"
	"github.com/campus-hub/activity-api/internal/permission"
	"github.com/campus-hub/activity-api/internal/registration"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type RegistrationHandler struct {
	db          *gorm.DB
	engine      *registration.Engine
	perms       permission.Checker
	authHandler *auth.AuthHandler
}

func NewRegistrationHandler(db *gorm.DB, engine *registration.Engine, perms permission.Checker, authHandler *auth.AuthHandler) *RegistrationHandler {
	return &RegistrationHandler{db: db, engine: engine, perms: perms, authHandler: authHandler}
}

type RegistrationResponse struct {
	ID           uint                      `json:"id"`
	UserID       uint                      `json:"user_id"`
	ActivityID   uint                      `json:"activity_id"`
	Status       models.RegistrationStatus `json:"status"`
	RegisteredAt time.Time                 `json:"registered_at"`
}

func toRegistrationResponse(r *models.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		ActivityID:   r.ActivityID,
		Status:       r.Status,
		RegisteredAt: r.RegisteredAt,
	}
}

type RegisterRequest struct {
	auth.AuthInput
	ActivityID uint `path:"id"`
}

type RegistrationOutput struct {
	Body RegistrationResponse
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegisterRequest) (*RegistrationOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	reg, err := h.engine.Register(ctx, userID, input.ActivityID)
	if err != nil {
		return nil, mapDomainError(err)
	}

	return &RegistrationOutput{Body: toRegistrationResponse(reg)}, nil
}

type CancelRequest struct {
	auth.AuthInput
	ActivityID uint `path:"id"`
}

func (h *RegistrationHandler) HandleCancel(ctx context.Context, input *CancelRequest) (*RegistrationOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	reg, err := h.engine.Cancel(ctx, userID, input.ActivityID)
	if err != nil {
		return nil, mapDomainError(err)
	}

	return &RegistrationOutput{Body: toRegistrationResponse(reg)}, nil
}

type ModerateRequest struct {
	auth.AuthInput
	RegistrationID uint `path:"id"`
}

func (h *RegistrationHandler) HandleApprove(ctx context.Context, input *ModerateRequest) (*RegistrationOutput, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	reg, err := h.engine.Approve(ctx, input.RegistrationID, actorID)
	if err != nil {
		return nil, mapDomainError(err)
	}

	return &RegistrationOutput{Body: toRegistrationResponse(reg)}, nil
}

func (h *RegistrationHandler) HandleReject(ctx context.Context, input *ModerateRequest) (*RegistrationOutput, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	reg, err := h.engine.Reject(ctx, input.RegistrationID, actorID)
	if err != nil {
		return nil, mapDomainError(err)
	}

	return &RegistrationOutput{Body: toRegistrationResponse(reg)}, nil
}

type AttendanceRequest struct {
	auth.AuthInput
	RegistrationID uint `path:"id"`
	Body           struct {
		Status models.RegistrationStatus `json:"status" doc:"ATTENDED or ABSENT" required:"true" enum:"ATTENDED,ABSENT"`
	}
}

func (h *RegistrationHandler) HandleAttendance(ctx context.Context, input *AttendanceRequest) (*RegistrationOutput, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var reg *models.Registration
	switch input.Body.Status {
	case models.RegistrationAttended:
		reg, err = h.engine.MarkAttended(ctx, input.RegistrationID, actorID)
	case models.RegistrationAbsent:
		reg, err = h.engine.MarkAbsent(ctx, input.RegistrationID, actorID)
	default:
		return nil, huma.Error400BadRequest("Status must be ATTENDED or ABSENT")
	}
	if err != nil {
		return nil, mapDomainError(err)
	}

	return &RegistrationOutput{Body: toRegistrationResponse(reg)}, nil
}

type ListRegistrationsRequest struct {
	auth.AuthInput
	ActivityID uint                      `path:"id"`
	Status     models.RegistrationStatus `query:"status" doc:"Filter by status" required:"false"`
}

type ListRegistrationsOutput struct {
	Body []RegistrationResponse
}

func (h *RegistrationHandler) HandleListRegistrations(ctx context.Context, input *ListRegistrationsRequest) (*ListRegistrationsOutput, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	decision, err := h.perms.CanModerate(ctx, actorID, input.ActivityID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	if !decision.Allowed {
		return nil, huma.Error403Forbidden("Access denied: " + decision.Reason)
	}

	q := h.db.Where("activity_id = ?", input.ActivityID)
	if input.Status != "" {
		q = q.Where("status = ?", input.Status)
	}

	var regs []models.Registration
	if err := q.Order("registered_at asc").Find(&regs).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list registrations")
	}

	out := &ListRegistrationsOutput{Body: make([]RegistrationResponse, 0, len(regs))}
	for i := range regs {
		out.Body = append(out.Body, toRegistrationResponse(&regs[i]))
	}
	return out, nil
}
