package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/evzone/fleet-backoffice/internal/auth"
	"github.com/evzone/fleet-backoffice/internal/config"
	"github.com/evzone/fleet-backoffice/internal/db"
	"github.com/evzone/fleet-backoffice/internal/deployment"
	"github.com/evzone/fleet-backoffice/internal/handlers"
	"github.com/evzone/fleet-backoffice/internal/middleware"
	"github.com/evzone/fleet-backoffice/internal/registry"
	"github.com/evzone/fleet-backoffice/internal/session"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	client, err := db.ConnectMongoURI(cfg.Mongo.URI)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)
	log.Info("connected to MongoDB")

	database := client.Database(cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	authService, err := auth.NewService()
	if err != nil {
		log.Fatalf("failed to create auth service: %v", err)
	}

	vehicles := &db.MongoVehicleCollection{Collection: database.Collection(db.CollVehicles)}
	deployments := &db.MongoDeploymentCollection{Collection: database.Collection(db.CollDeployments)}
	users := &db.MongoUserCollection{Collection: database.Collection(db.CollUsers)}

	resolver := registry.NewResolver(vehicles)
	deploymentService := deployment.NewService(deployments, resolver)
	sessionManager := session.NewManager(session.NewStore(redisClient))

	authHandler := handlers.NewAuthHandler(authService, users)
	vehicleHandler := handlers.NewVehicleHandler(resolver)
	deploymentHandler := handlers.NewDeploymentHandler(deploymentService)
	shiftHandler := handlers.NewShiftHandler(sessionManager)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	router := mux.NewRouter()
	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", authHandler.Me).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Handle("/vehicles/{registration}", http.HandlerFunc(vehicleHandler.Resolve)).Methods(http.MethodGet)
	api.Handle("/vehicles/{registration}/validate", http.HandlerFunc(vehicleHandler.ValidateForDeployment)).Methods(http.MethodGet)

	api.Handle("/deployments", authMiddleware.RequireCapability("deploy_vehicle")(http.HandlerFunc(deploymentHandler.CheckOut))).Methods(http.MethodPost)
	api.Handle("/deployments/active", http.HandlerFunc(deploymentHandler.Active)).Methods(http.MethodGet)
	api.Handle("/deployments/{id}/checkin", authMiddleware.RequireCapability("return_vehicle")(http.HandlerFunc(deploymentHandler.CheckIn))).Methods(http.MethodPost)
	api.Handle("/deployments/{id}/cancel", authMiddleware.RequireCapability("cancel_deployment")(http.HandlerFunc(deploymentHandler.Cancel))).Methods(http.MethodPost)

	api.Handle("/shift/identify", http.HandlerFunc(shiftHandler.Identify)).Methods(http.MethodPost)
	api.Handle("/shift/last-employee", http.HandlerFunc(shiftHandler.LastEmployee)).Methods(http.MethodGet)
	api.Handle("/shift/{employeeId}/start", authMiddleware.RequireCapability("record_trip")(http.HandlerFunc(shiftHandler.StartShift))).Methods(http.MethodPost)
	api.Handle("/shift/{employeeId}/trips", authMiddleware.RequireCapability("record_trip")(http.HandlerFunc(shiftHandler.AddTrip))).Methods(http.MethodPost)
	api.Handle("/shift/{employeeId}/trips/{tripId}", authMiddleware.RequireCapability("amend_trip")(http.HandlerFunc(shiftHandler.AmendTrip))).Methods(http.MethodPatch)
	api.Handle("/shift/{employeeId}/trips/{tripId}", authMiddleware.RequireCapability("amend_trip")(http.HandlerFunc(shiftHandler.RemoveTrip))).Methods(http.MethodDelete)
	api.Handle("/shift/{employeeId}/end", authMiddleware.RequireCapability("close_shift")(http.HandlerFunc(shiftHandler.EndShift))).Methods(http.MethodPost)
	api.Handle("/shift/{employeeId}/analytics", http.HandlerFunc(shiftHandler.Analytics)).Methods(http.MethodGet)
	api.Handle("/shift/{employeeId}/export", http.HandlerFunc(shiftHandler.Export)).Methods(http.MethodGet)
	api.Handle("/shift/{employeeId}/reset", http.HandlerFunc(shiftHandler.Reset)).Methods(http.MethodPost)

	handler := middleware.RequestLogger(
		rateLimiter.RateLimit(300, 60)(
			authMiddleware.Authenticate(router)))

	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("addr", cfg.Server.ServerAddr()).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Info("server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
