package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/recordwithme/backend/internal/router"
	"github.com/recordwithme/backend/pkg/config"
	"github.com/recordwithme/backend/pkg/firebase"
	"github.com/recordwithme/backend/pkg/logger"
	"github.com/recordwithme/backend/validators"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseDatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to initialize Firebase: %v", err)
	}
	defer firebaseApp.Close()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e)

	if err := router.SetupRoutes(e, cfg, db, firebaseApp); err != nil {
		logrus.Fatalf("Failed to set up routes: %v", err)
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
	}
}
