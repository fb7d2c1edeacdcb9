package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Arman334/CrewLink/internal/config"
	"github.com/Arman334/CrewLink/internal/database"
	"github.com/Arman334/CrewLink/internal/events"
	"github.com/Arman334/CrewLink/internal/handlers"
	"github.com/Arman334/CrewLink/internal/repository"
	cronjobs "github.com/Arman334/CrewLink/internal/scheduler"
	"github.com/Arman334/CrewLink/internal/services"
	"github.com/Arman334/CrewLink/pkg/logger"
	"github.com/Arman334/CrewLink/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureIndexes(indexCtx, db); err != nil {
		log.Fatalf("Index creation error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	layoverRepo := repository.NewLayoverRepository(db)
	connRepo := repository.NewConnectionRepository(db)
	planRepo := repository.NewPlanRepository(db)
	attendeeRepo := repository.NewAttendeeRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	// --- Events ---
	hub := events.NewHub()

	// --- Services ---
	userService := services.NewUserService(userRepo)
	layoverService := services.NewLayoverService(layoverRepo)
	matcherService := services.NewMatcherService(layoverRepo, userRepo, connRepo)
	notificationService := services.NewNotificationService(notifRepo, connRepo, hub)
	connectionService := services.NewConnectionService(connRepo, userRepo, notificationService)
	planService := services.NewPlanService(planRepo, attendeeRepo, connRepo, notificationService)
	messageService := services.NewMessageService(msgRepo, connRepo, notificationService)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	layoverHandler := handlers.NewLayoverHandler(layoverService)
	crewHandler := handlers.NewCrewHandler(matcherService)
	connectionHandler := handlers.NewConnectionHandler(connectionService)
	planHandler := handlers.NewPlanHandler(planService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	messageHandler := handlers.NewMessageHandler(messageService)
	badgeStreamHandler := handlers.NewBadgeStreamHandler(notificationService, hub, cfg.JWTSecret)

	// Background sweeps: layover status rolling, notification retention
	cronjobs.StartCronJobs(layoverService, notificationService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	// Protected user routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.UpdateUserHandler).Methods("PATCH")

	// Layover routes
	layoverRoutes := router.PathPrefix("/layovers").Subrouter()
	layoverRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	layoverRoutes.HandleFunc("", layoverHandler.CreateLayoverHandler).Methods("POST")
	layoverRoutes.HandleFunc("", layoverHandler.ListLayoversHandler).Methods("GET")
	layoverRoutes.HandleFunc("/{id}", layoverHandler.UpdateLayoverHandler).Methods("PUT")
	layoverRoutes.HandleFunc("/{id}/discoverable", layoverHandler.SetDiscoverableHandler).Methods("PATCH")
	layoverRoutes.HandleFunc("/{id}", layoverHandler.DeleteLayoverHandler).Methods("DELETE")

	// Overlap matcher
	crewRoutes := router.PathPrefix("/crew").Subrouter()
	crewRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	crewRoutes.HandleFunc("/overlap", crewHandler.FindOverlappingCrewHandler).Methods("GET")

	// Connection routes
	connectionRoutes := router.PathPrefix("/connections").Subrouter()
	connectionRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	connectionRoutes.HandleFunc("/requests", connectionHandler.PendingRequestsHandler).Methods("GET")
	connectionRoutes.HandleFunc("/requests/{id}/accept", connectionHandler.AcceptRequestHandler).Methods("POST")
	connectionRoutes.HandleFunc("/requests/{id}/reject", connectionHandler.RejectRequestHandler).Methods("POST")
	connectionRoutes.HandleFunc("/{id}/request", connectionHandler.SendRequestHandler).Methods("POST")
	connectionRoutes.HandleFunc("", connectionHandler.ListConnectionsHandler).Methods("GET")
	connectionRoutes.HandleFunc("/{id}", connectionHandler.RemoveConnectionHandler).Methods("DELETE")

	// Plan routes
	planRoutes := router.PathPrefix("/plans").Subrouter()
	planRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	planRoutes.HandleFunc("", planHandler.CreatePlanHandler).Methods("POST")
	planRoutes.HandleFunc("", planHandler.ListPlansHandler).Methods("GET")
	planRoutes.HandleFunc("/{id}", planHandler.GetPlanHandler).Methods("GET")
	planRoutes.HandleFunc("/{id}/join", planHandler.JoinPlanHandler).Methods("POST")
	planRoutes.HandleFunc("/{id}/leave", planHandler.LeavePlanHandler).Methods("POST")
	planRoutes.HandleFunc("/{id}/cancel", planHandler.CancelPlanHandler).Methods("POST")
	planRoutes.HandleFunc("/{id}/invite", planHandler.InviteToPlanHandler).Methods("POST")
	planRoutes.HandleFunc("/{id}/attendees", planHandler.ListAttendeesHandler).Methods("GET")
	planRoutes.HandleFunc("/{id}/stops/reorder", planHandler.ReorderStopsHandler).Methods("POST")
	planRoutes.HandleFunc("/{id}/stops/{stopId}", planHandler.RemoveStopHandler).Methods("DELETE")

	// Notification routes
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", notificationHandler.ListNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/badge", notificationHandler.BadgeHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read", notificationHandler.MarkReadHandler).Methods("POST")

	// Message routes
	messageRoutes := router.PathPrefix("/messages").Subrouter()
	messageRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	messageRoutes.HandleFunc("/{connectionId}", messageHandler.SendMessageHandler).Methods("POST")
	messageRoutes.HandleFunc("/{connectionId}", messageHandler.ListMessagesHandler).Methods("GET")
	messageRoutes.HandleFunc("/{connectionId}/read", messageHandler.MarkConversationReadHandler).Methods("POST")

	// Live badge stream (token in query string, no auth middleware)
	router.HandleFunc("/ws/badge", badgeStreamHandler.BadgeWebSocketHandler).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
