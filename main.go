package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"

	"ferry-system/config"
	"ferry-system/handlers"
	"ferry-system/internal/feed"
	_ "ferry-system/migrations"
	"ferry-system/monitoring"
	"ferry-system/security"
	"ferry-system/services"
	"ferry-system/utils"
)

func main() {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub fan-out (nil without keys; services degrade gracefully)
	pn := services.NewPubNubClient(cfg)

	// Initialize services
	bookingService := services.NewBookingService(app, cfg)
	broker := services.NewBroker(bookingService, pn, cfg)
	trackingService := services.NewTrackingService(redisClient, pn, cfg)

	// Monitoring
	monitor := monitoring.NewMonitor(redisClient)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, monitor)
	adminHandler := handlers.NewAdminHandler(app, bookingService, monitor)
	trackingHandler := handlers.NewTrackingHandler(trackingService, bookingService)

	// Rate limiting
	rateLimiter := security.NewRateLimiter(redisClient, cfg.RequestsPerMinute)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Create context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fan booking changes out to live subscribers and PubNub
	broker.Bind(app)
	defer broker.Close()

	// Start background tasks
	go trackingService.Run(ctx)
	if cfg.FeedSubscribeKey != "" && cfg.FeedChannel != "" {
		go runTelemetryFeed(ctx, cfg, trackingService, monitor)
	}

	var opsServer *monitoring.OpsServer
	if cfg.EnableMetrics {
		opsServer = monitoring.NewOpsServer(monitor, cfg.MetricsPort, cfg.OpsUser, cfg.OpsPasswordHash)
		go func() {
			if err := opsServer.Start(); err != nil {
				log.Printf("Ops server stopped: %v", err)
			}
		}()
		go func() {
			if err := monitor.WatchBookings(ctx, broker); err != nil && err != context.Canceled {
				monitor.LogSubscriptionDrop(err.Error())
			}
		}()
	}

	// Setup graceful shutdown
	go handleShutdown(cancel, opsServer)

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Booking endpoints (passengers)
		bookings := e.Router.Group("/api/ferry/bookings")
		bookings.Bind(apis.RequireAuth("users"))
		bookings.BindFunc(rateLimiter.AntiBot())
		bookings.POST("", bookingHandler.CreateBooking).BindFunc(rateLimiter.BookingRateLimit())
		bookings.GET("", bookingHandler.ListMyBookings)
		bookings.GET("/active", bookingHandler.ActiveBooking)
		bookings.GET("/availability", bookingHandler.CheckAvailability)
		bookings.GET("/{id}", bookingHandler.GetBooking)
		bookings.PATCH("/{id}", bookingHandler.UpdateBooking).BindFunc(rateLimiter.BookingRateLimit())
		bookings.POST("/{id}/cancel", bookingHandler.CancelBooking).BindFunc(rateLimiter.BookingRateLimit())
		bookings.GET("/{id}/boarding-pass", bookingHandler.BoardingPass)

		// Tracking endpoints
		tracking := e.Router.Group("/api/ferry/tracking")
		tracking.Bind(apis.RequireAuth("users", "admins"))
		tracking.GET("/fleet", trackingHandler.ListFerries)
		tracking.GET("/fleet/{id}", trackingHandler.GetFerry)
		tracking.GET("/fleet/{id}/position", trackingHandler.FerryPosition)
		tracking.GET("/routes", trackingHandler.ListRoutes)
		tracking.GET("/my-route", trackingHandler.MyRoute)

		// Admin endpoints (back office + gate scanner)
		admin := e.Router.Group("/api/ferry/admin")
		admin.Bind(apis.RequireAuth("admins"))
		admin.GET("/bookings", adminHandler.ListBookings)
		admin.POST("/bookings/{id}/status", adminHandler.TransitionBooking)
		admin.DELETE("/bookings/{id}", adminHandler.DeleteBooking)
		admin.GET("/stats", adminHandler.Stats)
		admin.POST("/scan", bookingHandler.VerifyBoardingPass)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// runTelemetryFeed replaces the simulated positions of vessels covered by the
// operator's live feed with real samples.
func runTelemetryFeed(ctx context.Context, cfg *config.Config, tracking *services.TrackingService, monitor *monitoring.Monitor) {
	client := feed.New(&feed.Config{
		SubscribeKey: cfg.FeedSubscribeKey,
		Channel:      cfg.FeedChannel,
		UUID:         cfg.FeedUUID,
	})

	go client.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case pos, ok := <-client.Positions():
			if !ok {
				return
			}
			if err := tracking.ApplyPosition(ctx, pos); err != nil {
				log.Printf("Apply feed position: %v", err)
				continue
			}
			monitor.TrackPositionUpdate()
		}
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc, ops *monitoring.OpsServer) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()

	if ops != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := ops.Shutdown(shutdownCtx); err != nil {
			log.Printf("Ops server shutdown: %v", err)
		}
	}
}
