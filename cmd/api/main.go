package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/clinicore/consult-api/config"
	appointmentHandler "github.com/clinicore/consult-api/internal/handler/appointment"
	authHandler "github.com/clinicore/consult-api/internal/handler/auth"
	catalogHandler "github.com/clinicore/consult-api/internal/handler/catalog"
	consultationHandler "github.com/clinicore/consult-api/internal/handler/consultation"
	healthHandler "github.com/clinicore/consult-api/internal/handler/health"
	patientHandler "github.com/clinicore/consult-api/internal/handler/patient"
	prescriptionHandler "github.com/clinicore/consult-api/internal/handler/prescription"
	"github.com/clinicore/consult-api/internal/middleware"
	"github.com/clinicore/consult-api/internal/repository/postgres"
	"github.com/clinicore/consult-api/internal/router"
	appointmentService "github.com/clinicore/consult-api/internal/service/appointment"
	auditService "github.com/clinicore/consult-api/internal/service/audit"
	authService "github.com/clinicore/consult-api/internal/service/auth"
	catalogService "github.com/clinicore/consult-api/internal/service/catalog"
	consultationService "github.com/clinicore/consult-api/internal/service/consultation"
	emailService "github.com/clinicore/consult-api/internal/service/email"
	eventService "github.com/clinicore/consult-api/internal/service/event"
	historyService "github.com/clinicore/consult-api/internal/service/history"
	patientService "github.com/clinicore/consult-api/internal/service/patient"
	prescriptionService "github.com/clinicore/consult-api/internal/service/prescription"
	vitalsService "github.com/clinicore/consult-api/internal/service/vitals"
	"github.com/clinicore/consult-api/pkg/auth"
	"github.com/clinicore/consult-api/pkg/logger"
	"github.com/clinicore/consult-api/pkg/metrics"
	"github.com/clinicore/consult-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("consult")

	// Repositories
	consultationRepo := postgres.NewConsultationRepository(db)
	vitalsRepo := postgres.NewVitalSignsRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	clinicianRepo := postgres.NewClinicianRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Infrastructure services
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(0)
	sender := emailService.NewSMTPSender(cfg.SMTP, appLogger)

	// Domain services
	auditSvc := auditService.NewService(auditRepo, appLogger)
	eventSvc := eventService.NewService(outboxRepo)
	authSvc := authService.NewService(clinicianRepo, jwtSvc, hasher, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	patientSvc := patientService.NewService(patientRepo, auditSvc)
	vitalsSvc := vitalsService.NewService(vitalsRepo, patientRepo, auditSvc)
	historySvc := historyService.NewService(historyRepo, patientRepo, auditSvc)
	catalogSvc := catalogService.NewService(catalogRepo, cfg.Catalog, m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, patientRepo, auditSvc)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, consultationRepo, auditSvc)
	consultationSvc := consultationService.NewService(
		consultationRepo,
		patientRepo,
		vitalsRepo,
		historyRepo,
		catalogRepo,
		eventSvc,
		auditSvc,
		sender,
		m,
		appLogger,
	)

	// HTTP layer
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		healthHandler.NewHandler(db),
		patientHandler.NewHandler(patientSvc, vitalsSvc, historySvc, consultationSvc),
		consultationHandler.NewHandler(consultationSvc),
		catalogHandler.NewHandler(catalogSvc),
		prescriptionHandler.NewHandler(prescriptionSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		router.Config{
			RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "consult_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
