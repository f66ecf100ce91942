package router

import (
	"github.com/labstack/echo/v4"
	"github.com/recordwithme/backend/internal/handlers"
	"github.com/recordwithme/backend/internal/middleware"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"github.com/recordwithme/backend/internal/services"
	"github.com/recordwithme/backend/pkg/config"
	"github.com/recordwithme/backend/pkg/firebase"
	"github.com/sirupsen/logrus"
)

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, fb *firebase.App) error {
	// AutoMigrate PostgreSQL models
	if err := db.Postgres.AutoMigrate(&models.User{}); err != nil {
		return err
	}
	logrus.Info("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	photoRepo := repositories.NewMongoPhotoRepository(db.Mongo.Database(cfg.MongoDatabase))
	feed := repositories.NewRTDBNotificationFeed(fb.DatabaseClient, cfg.FeedPollInterval)
	notificationRepo := repositories.NewFirestoreNotificationRepository(fb.FirestoreClient)
	friendshipRepo := repositories.NewFirestoreFriendshipRepository(fb.FirestoreClient)
	groupRepo := repositories.NewFirestoreGroupRepository(fb.FirestoreClient)
	transactor := repositories.NewFirestoreTransactor(fb.FirestoreClient)

	var consumedRepo repositories.ConsumedRepository
	if db.Redis != nil {
		consumedRepo = repositories.NewRedisConsumedRepository(db.Redis, cfg.ConsumedSetLimit, cfg.ConsumedSetTTL)
		logrus.Info("Consumed notification set backed by Redis.")
	} else {
		consumedRepo = repositories.NewMemoryConsumedRepository(cfg.ConsumedSetLimit)
		logrus.Warn("REDIS_ADDR not set, consumed notification set kept in memory.")
	}

	// --- Initialize Services ---
	aggregator := services.NewNotificationAggregator(feed, notificationRepo, consumedRepo)
	responder := services.NewNotificationResponder(feed, notificationRepo, transactor, consumedRepo)
	social := services.NewSocialService(feed, transactor)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userRepo, fb.AuthClient, cfg.JWTSecret).RegisterAuthRoutes(authGroup)
	logrus.Info("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)
	handlers.NewNotificationHandler(aggregator, responder).RegisterNotificationRoutes(api)
	handlers.NewFriendshipHandler(friendshipRepo, userRepo, social).RegisterFriendshipRoutes(api)
	handlers.NewGroupHandler(groupRepo, userRepo, social).RegisterGroupRoutes(api)
	handlers.NewPhotoHandler(photoRepo, groupRepo).RegisterPhotoRoutes(api)

	logrus.Info("All routes configured.")
	return nil
}
