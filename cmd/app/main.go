package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pesto-students/backend-repo-titans/internal/booking"
	"github.com/pesto-students/backend-repo-titans/internal/clock"
	"github.com/pesto-students/backend-repo-titans/internal/config"
	"github.com/pesto-students/backend-repo-titans/internal/db"
	"github.com/pesto-students/backend-repo-titans/internal/email"
	"github.com/pesto-students/backend-repo-titans/internal/extension"
	"github.com/pesto-students/backend-repo-titans/internal/geo"
	"github.com/pesto-students/backend-repo-titans/internal/gym"
	"github.com/pesto-students/backend-repo-titans/internal/logger"
	"github.com/pesto-students/backend-repo-titans/internal/pincode"
	"github.com/pesto-students/backend-repo-titans/internal/rating"
	"github.com/pesto-students/backend-repo-titans/internal/server"
	"github.com/pesto-students/backend-repo-titans/internal/storage"
	"github.com/pesto-students/backend-repo-titans/internal/sweep"
	"github.com/pesto-students/backend-repo-titans/internal/user"
)

// @title WorkoutWings API
// @version 1.0
// @description Gym discovery, slot booking and extension negotiation.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting WorkoutWings application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	var deliverer email.Deliverer
	if cfg.ResendAPIKey != "" {
		deliverer = email.NewResendDeliverer(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		logger.Info("Email delivery via Resend")
	} else {
		deliverer = email.NewSMTPDeliverer(cfg.EmailFrom, cfg.EmailFromName, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
		logger.Info("Email delivery via SMTP", "host", cfg.SMTPHost)
	}
	emailService := email.New(rdb, deliverer, cfg.PlatformName)
	defer emailService.Close()

	var images storage.ImageStore = storage.Unconfigured{}
	if cfg.StorageConfigured() {
		oss, err := storage.NewOSSStore(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey, cfg.OSSBucket, cfg.OSSPublicBaseURL)
		if err != nil {
			logger.Fatalf("Failed to initialise object storage: %v", err)
		}
		images = oss
	} else {
		logger.Warn("OSS_* not set, gym image uploads are disabled")
	}

	clk := clock.New()
	users := user.NewRepository(database)
	gyms := gym.NewRepository(database)

	userService := user.NewService(users, emailService, cfg.JWTSecret)
	gymService := gym.NewService(gym.Deps{
		Repo:     gyms,
		Owners:   users,
		Pincodes: pincode.NewCachedLookup(database, rdb, cfg.PincodeCacheTTL),
		Geo:      geo.NewHTTPResolver(nil),
		Images:   images,
		Mailer:   emailService,
		Clock:    clk,
		Location: cfg.Location,
	})
	bookingService := booking.NewService(
		booking.NewRepository(database, rating.NewRepository()),
		gyms, users, emailService, clk, cfg.Location,
	)
	extensionService := extension.NewService(extension.NewRepository(database), users, emailService)

	srv := server.New(cfg, server.Handlers{
		Users:      user.NewHandler(userService),
		Gyms:       gym.NewHandler(gymService),
		Bookings:   booking.NewHandler(bookingService),
		Extensions: extension.NewHandler(extensionService),
	}, map[string]server.Check{
		"postgres": database.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go emailService.Start(ctx)

	sweeper := sweep.New(database, clk, sweep.Options{
		Rule:      cfg.SweepRule,
		BatchSize: cfg.SweepBatchSize,
		Schedule:  cfg.SweepSchedule,
		Location:  cfg.Location,
	})
	if err := sweeper.Start(ctx); err != nil {
		logger.Fatalf("Failed to start sweeper: %v", err)
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	cancel()
	sweeper.Stop()

	logger.Info("Server stopped")
}
