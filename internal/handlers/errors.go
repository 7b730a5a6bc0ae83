package handlers

import (
	"errors"

	"github.com/campus-hub/activity-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
)

// mapDomainError translates engine/lifecycle sentinels into typed HTTP
// errors so clients can distinguish "not allowed right now" from "not
// your resource" from "try again" without parsing strings.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, models.ErrPermissionDenied):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrActivityNotOpen):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, models.ErrAlreadyRegistered),
		errors.Is(err, models.ErrConflict):
		return huma.Error409Conflict(err.Error())
	}

	var humaErr huma.StatusError
	if errors.As(err, &humaErr) {
		return err
	}
	return huma.Error500InternalServerError("Internal error: " + err.Error())
}
