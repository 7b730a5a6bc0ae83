package models

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrActivityNotOpen   = errors.New("activity is not open for registration")
	ErrAlreadyRegistered = errors.New("user already has an active registration for this activity")
	ErrPermissionDenied  = errors.New("actor is not allowed to moderate this activity")
	ErrConflict          = errors.New("operation conflicted with concurrent updates, try again")
)
