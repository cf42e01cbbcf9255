package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicedome-backend/cache"
	"servicedome-backend/config"
	"servicedome-backend/events"
	"servicedome-backend/routes"
	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Auth.JWTSecret == "" {
		if cfg.Environment == "production" {
			logger.Fatal("JWT_SECRET is required in production")
		}
		cfg.Auth.JWTSecret = utils.GenerateJWTSecret()
		logger.Warn("JWT_SECRET not set, using an ephemeral secret")
	}

	db, err := config.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	var pageCache services.Cache
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable, page cache disabled", zap.Error(err))
		} else {
			pageCache = rc
			defer rc.Close()
		}
		cancel()
	}

	var publisher services.EventPublisher = events.Discard{}
	if cfg.Rabbit.URL != "" {
		p, err := events.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.BookingExchange)
		if err != nil {
			logger.Warn("rabbitmq unavailable, booking events disabled", zap.Error(err))
		} else {
			publisher = p
			defer p.Close()
		}
	}

	var sms services.Pusher
	if cfg.Twilio.Enabled() {
		sms = services.NewSMSPusher(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
	}
	expo := services.NewExpoPusher(cfg.Push.ExpoURL, cfg.Push.ExpoAccessToken)

	notifications := services.NewNotificationService(db, logger, expo, sms, cfg.Push.Timeout)
	svc := routes.Services{
		Accounts: services.NewAccountService(db, logger, services.AuthSettings{
			JWTSecret:  cfg.Auth.JWTSecret,
			TokenTTL:   time.Duration(cfg.Auth.JWTExpiryHours) * time.Hour,
			BcryptCost: cfg.Auth.BcryptCost,
		}),
		Pages:         services.NewPageService(db, logger, pageCache, cfg.Redis.PageTTL),
		Slots:         services.NewSlotService(db, logger),
		Bookings:      services.NewBookingService(db, logger, notifications, publisher, cfg.Bookings.AllowDirectComplete),
		Reviews:       services.NewReviewService(db),
		Notifications: notifications,
	}

	reminders := services.NewReminderService(db, notifications, logger)
	if err := reminders.StartScheduler(cfg.Bookings.ReminderSchedule); err != nil {
		logger.Fatal("reminder scheduler", zap.Error(err))
	}

	r := routes.SetupRouter(cfg, svc, logger)
	printRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	reminders.Stop()
	notifications.Wait()
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
