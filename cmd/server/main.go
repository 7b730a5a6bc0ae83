package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/campus-hub/activity-api/internal/activity"
	"github.com/campus-hub/activity-api/internal/auth"
	"github.com/campus-hub/activity-api/internal/config"
	"github.com/campus-hub/activity-api/internal/database"
	"github.com/campus-hub/activity-api/internal/handlers"
	"github.com/campus-hub/activity-api/internal/notifier"
	"github.com/campus-hub/activity-api/internal/permission"
	"github.com/campus-hub/activity-api/internal/registration"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Initialize Notifier
	var discordNotifier notifier.Notifier
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			discordNotifier = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
		}
	}

	// Initialize Core
	perms := permission.NewDBChecker(db)
	engine := registration.NewEngine(db, perms, discordNotifier)
	lifecycle := activity.NewMachine(db, perms, discordNotifier)

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, db)
	activityHandler := handlers.NewActivityHandler(db, lifecycle, authHandler)
	registrationHandler := handlers.NewRegistrationHandler(db, engine, perms, authHandler)
	apiKeyHandler := handlers.NewAPIKeyHandler(db, authHandler)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, activityHandler, registrationHandler, apiKeyHandler)

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
