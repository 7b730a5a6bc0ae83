package handlers

import (
	"net/http"

	"github.com/campus-hub/activity-api/internal/auth"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, activityHandler *ActivityHandler, registrationHandler *RegistrationHandler, apiKeyHandler *APIKeyHandler) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("Campus Activity API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
	}
	api := humachi.New(r, config)

	cookieSecured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)

	huma.Get(api, "/me", authHandler.HandleMe, cookieSecured)

	// Activities
	huma.Post(api, "/activities", activityHandler.HandleCreateActivity, cookieSecured)
	huma.Get(api, "/activities/{id}", activityHandler.HandleGetActivity)
	huma.Post(api, "/activities/{id}/status", activityHandler.HandleTransition, cookieSecured)

	// Registrations
	huma.Post(api, "/activities/{id}/register", registrationHandler.HandleRegister, cookieSecured)
	huma.Post(api, "/activities/{id}/cancel", registrationHandler.HandleCancel, cookieSecured)
	huma.Get(api, "/activities/{id}/registrations", registrationHandler.HandleListRegistrations, cookieSecured)
	huma.Post(api, "/registrations/{id}/approve", registrationHandler.HandleApprove, cookieSecured)
	huma.Post(api, "/registrations/{id}/reject", registrationHandler.HandleReject, cookieSecured)
	huma.Post(api, "/registrations/{id}/attendance", registrationHandler.HandleAttendance, cookieSecured)

	// API Keys
	huma.Post(api, "/api-keys", apiKeyHandler.HandleCreate, cookieSecured)
	huma.Get(api, "/api-keys", apiKeyHandler.HandleList, cookieSecured)
	huma.Delete(api, "/api-keys/{id}", apiKeyHandler.HandleDelete, cookieSecured)
}
