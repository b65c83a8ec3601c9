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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/condo-admin/backend/internal/api"
	"github.com/condo-admin/backend/internal/api/handlers"
	"github.com/condo-admin/backend/internal/auth"
	"github.com/condo-admin/backend/internal/config"
	"github.com/condo-admin/backend/internal/media"
	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scheduler"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/service"
	"github.com/condo-admin/backend/internal/storage"
	"github.com/condo-admin/backend/internal/websocket"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// Health check mode for Docker HEALTHCHECK
			if healthCheck, _ := cmd.Flags().GetBool("health-check"); healthCheck {
				return runHealthCheck(cfg.Addr)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("addr", "", "HTTP server address")
	cmd.Flags().String("data", "", "Data directory for the SQLite database")
	cmd.Flags().String("static", "", "Directory for static frontend files")
	cmd.Flags().Bool("health-check", false, "Run health check and exit")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	// Allow overriding version via environment (e.g., injected by container build/runtime)
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}
	log.Printf("Starting condo admin server (version: %s)...", version)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := storage.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mediaStore, err := media.Open(ctx, cfg.Media)
	if err != nil {
		return fmt.Errorf("opening media store: %w", err)
	}
	log.Printf("Media store: %s", mediaStore.Driver())

	tokens, err := auth.NewTokens(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	apartmentRepo := storage.NewApartmentRepository(db)
	guestRepo := storage.NewGuestRepository(db)
	maintenanceRepo := storage.NewMaintenanceRepository(db)
	reportRepo := storage.NewDamageReportRepository(db)
	paymentRepo := storage.NewPaymentRepository(db)
	notificationRepo := storage.NewNotificationRepository(db)

	broadcaster := websocket.NewEventBroadcaster(hub)
	notifier := notify.New(notificationRepo,
		notify.WithPublisher(broadcaster),
		notify.WithMetrics(notify.NewMetrics(registry)),
		notify.WithTimeout(cfg.NotifyTimeout),
	)
	resolver := scope.NewResolver(apartmentRepo)

	services := api.Services{
		Users:         service.NewUserService(userRepo, auth.NewHasher(auth.Params{}), tokens),
		Apartments:    service.NewApartmentService(apartmentRepo, userRepo, resolver, notifier),
		Guests:        service.NewGuestService(guestRepo, apartmentRepo, resolver, notifier),
		Payments:      service.NewPaymentService(paymentRepo, userRepo, apartmentRepo, resolver, notifier),
		Maintenance:   service.NewMaintenanceService(maintenanceRepo, userRepo, notifier),
		DamageReports: service.NewDamageReportService(reportRepo, apartmentRepo, userRepo, mediaStore, notifier),
		Notifications: service.NewNotificationService(notificationRepo, userRepo, notifier, broadcaster),
	}

	reminders := scheduler.NewReminderScheduler(paymentRepo, guestRepo, apartmentRepo, notifier)
	if err := reminders.Start(); err != nil {
		return err
	}
	defer reminders.Stop()

	router := api.NewRouter(api.Config{
		DB:             db,
		Hub:            hub,
		Media:          mediaStore,
		Tokens:         tokens,
		Accounts:       userRepo,
		Registry:       registry,
		StaticDir:      cfg.StaticDir,
		Version:        version,
		RequestTimeout: cfg.RequestTimeout,
		Settings: handlers.SettingsResponse{
			MediaDriver:           string(mediaStore.Driver()),
			TokenTTL:              cfg.TokenTTL.String(),
			NotifyTimeout:         cfg.NotifyTimeout.String(),
			RequestTimeout:        cfg.RequestTimeout.String(),
			PaymentReminderWindow: scheduler.ReminderWindow.String(),
		},
	}, services)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}
