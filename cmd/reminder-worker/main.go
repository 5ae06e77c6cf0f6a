package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/careloop/medreminder/cmd/mainconfig"
	"github.com/careloop/medreminder/internal/app/bootstrap"
	appconfig "github.com/careloop/medreminder/internal/config"
	"github.com/careloop/medreminder/internal/notify"
	"github.com/careloop/medreminder/internal/observability/metrics"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/internal/reminders"
	"github.com/careloop/medreminder/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medreminder planning worker",
		"env", cfg.Env,
		"interval", cfg.PlanInterval.String(),
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

	redisClient := bootstrap.BuildRedisClient(context.Background(), cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for reminder markers")
		os.Exit(1)
	}
	markerStore := bootstrap.BuildMarkerStore(redisClient)
	permissionStore := bootstrap.BuildPermissionStore(redisClient)

	reminderMetrics := metrics.NewReminderMetrics(nil)

	sqsClient := sqs.NewFromConfig(awsCfg)
	pushScheduler := notify.NewSQSPushScheduler(sqsClient, cfg.PushQueueURL, logger)

	planner := reminders.NewPlanner(markerStore, pushScheduler, medicationsRepo, loc, logger, reminderMetrics)
	worker := reminders.NewWorker(patientsRepo, prescriptionsRepo, appointmentsRepo, permissionStore, planner, logger).
		WithInterval(cfg.PlanInterval)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		cancel()
	}()

	worker.Run(ctx)
	logger.Info("worker stopped")
}
