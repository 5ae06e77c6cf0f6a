package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careloop/medreminder/cmd/mainconfig"
	"github.com/careloop/medreminder/internal/api/handlers"
	"github.com/careloop/medreminder/internal/api/router"
	"github.com/careloop/medreminder/internal/app/bootstrap"
	appconfig "github.com/careloop/medreminder/internal/config"
	"github.com/careloop/medreminder/internal/notify"
	"github.com/careloop/medreminder/internal/observability/metrics"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/internal/reminders"
	"github.com/careloop/medreminder/internal/reports"
	"github.com/careloop/medreminder/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medreminder API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := bootstrap.BuildLocation(cfg)
	if err != nil {
		logger.Error("failed to resolve clinic timezone", "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	patientsRepo := records.NewPatientRepository(dynamoClient, cfg.PatientsTable, logger)
	medicationsRepo := records.NewMedicationRepository(dynamoClient, cfg.MedicationsTable, logger)
	prescriptionsRepo := records.NewPrescriptionRepository(dynamoClient, cfg.PrescriptionsTable, logger)
	appointmentsRepo := records.NewAppointmentRepository(dynamoClient, cfg.AppointmentsTable, logger)
	intakesRepo := records.NewIntakeRepository(dynamoClient, cfg.IntakesTable, logger)
	vitalsRepo := records.NewVitalSignRepository(dynamoClient, cfg.VitalsTable, logger)

	redisClient := bootstrap.BuildRedisClient(context.Background(), cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for reminder markers")
		os.Exit(1)
	}
	markerStore := bootstrap.BuildMarkerStore(redisClient)
	permissionStore := bootstrap.BuildPermissionStore(redisClient)

	registry := prometheus.NewRegistry()
	reminderMetrics := metrics.NewReminderMetrics(registry)

	sqsClient := sqs.NewFromConfig(awsCfg)
	pushScheduler := notify.NewSQSPushScheduler(sqsClient, cfg.PushQueueURL, logger)

	planner := reminders.NewPlanner(markerStore, pushScheduler, medicationsRepo, loc, logger, reminderMetrics)
	worker := reminders.NewWorker(patientsRepo, prescriptionsRepo, appointmentsRepo, permissionStore, planner, logger)

	receipts := notify.NewService(bootstrap.BuildEmailSender(awsCfg, cfg, logger), logger)
	exporter := reports.NewExporter(s3.NewFromConfig(awsCfg), cfg.ReportsBucket, logger)

	routerCfg := &router.Config{
		Logger: logger,
		MedicationsHandler: handlers.NewMedicationsHandler(
			prescriptionsRepo, medicationsRepo, intakesRepo, loc, logger),
		IntakesHandler: handlers.NewIntakesHandler(
			prescriptionsRepo, medicationsRepo, intakesRepo, patientsRepo,
			receipts, reminderMetrics, loc, logger),
		RemindersHandler:    handlers.NewRemindersHandler(worker, permissionStore, logger),
		AppointmentsHandler: handlers.NewAppointmentsHandler(appointmentsRepo, logger),
		VitalsHandler:       handlers.NewVitalsHandler(vitalsRepo, loc, logger),
		ReportsHandler:      handlers.NewReportsHandler(intakesRepo, vitalsRepo, exporter, loc, logger),
		StreamHandler: handlers.NewStreamHandler(
			prescriptionsRepo, intakesRepo, cfg.StreamPollInterval, logger),
		ClinicianHandler: handlers.NewClinicianHandler(
			prescriptionsRepo, appointmentsRepo, medicationsRepo, patientsRepo, loc, logger),
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		PatientJWTSecret: cfg.PatientJWTSecret,
		AdminToken:       cfg.AdminAPIToken,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
