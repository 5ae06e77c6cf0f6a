package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/careloop/medreminder/cmd/mainconfig"
	"github.com/careloop/medreminder/internal/app/bootstrap"
	appconfig "github.com/careloop/medreminder/internal/config"
	"github.com/careloop/medreminder/internal/notify"
	"github.com/careloop/medreminder/internal/observability/metrics"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/internal/reminders"
	"github.com/careloop/medreminder/pkg/logging"
)

// Scheduled planning entrypoint. EventBridge invokes this on a cron rule as
// an alternative to running the long-lived worker binary.
func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	worker, err := buildWorker(context.Background(), cfg, logger)
	if err != nil {
		panic(err)
	}

	lambda.Start(func(ctx context.Context, evt events.CloudWatchEvent) error {
		planned, err := worker.PlanAll(ctx)
		if err != nil {
			logger.Error("planning pass failed", "error", err)
			return err
		}
		logger.Info("planning pass complete", "planned", planned, "rule", evt.Resources)
		return nil
	})
}

func buildWorker(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*reminders.Worker, error) {
	loc, err := bootstrap.BuildLocation(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	patientsRepo := records.NewPatientRepository(dynamoClient, cfg.PatientsTable, logger)
	medicationsRepo := records.NewMedicationRepository(dynamoClient, cfg.MedicationsTable, logger)
	prescriptionsRepo := records.NewPrescriptionRepository(dynamoClient, cfg.PrescriptionsTable, logger)
	appointmentsRepo := records.NewAppointmentRepository(dynamoClient, cfg.AppointmentsTable, logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, false)
	if redisClient == nil {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	markerStore := bootstrap.BuildMarkerStore(redisClient)
	permissionStore := bootstrap.BuildPermissionStore(redisClient)

	sqsClient := sqs.NewFromConfig(awsCfg)
	pushScheduler := notify.NewSQSPushScheduler(sqsClient, cfg.PushQueueURL, logger)

	planner := reminders.NewPlanner(markerStore, pushScheduler, medicationsRepo, loc, logger,
		metrics.NewReminderMetrics(nil))
	return reminders.NewWorker(patientsRepo, prescriptionsRepo, appointmentsRepo, permissionStore, planner, logger), nil
}
