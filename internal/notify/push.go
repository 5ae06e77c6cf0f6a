// Package notify covers outbound patient communication: scheduled push
// reminders, notification permission state, and receipt emails.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/careloop/medreminder/pkg/logging"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// PushJob is the payload the mobile push delivery pipeline consumes. The
// pipeline holds the job until DeliverAt before pushing to the device.
type PushJob struct {
	PatientID string `json:"patientId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	DeliverAt string `json:"deliverAt"` // RFC3339
}

// SQSPushScheduler enqueues push jobs on the delivery queue with a bounded
// retry, so a slow or flaky queue never blocks a planning pass indefinitely.
type SQSPushScheduler struct {
	client         sqsAPI
	queueURL       string
	logger         *logging.Logger
	maxAttempts    int
	retryDelay     time.Duration
	attemptTimeout time.Duration
}

// NewSQSPushScheduler creates a scheduler on the given queue.
func NewSQSPushScheduler(client sqsAPI, queueURL string, logger *logging.Logger) *SQSPushScheduler {
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("notify: SQS queueURL cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SQSPushScheduler{
		client:         client,
		queueURL:       queueURL,
		logger:         logger,
		maxAttempts:    3,
		retryDelay:     200 * time.Millisecond,
		attemptTimeout: 5 * time.Second,
	}
}

// WithMaxAttempts overrides the per-job attempt budget.
func (s *SQSPushScheduler) WithMaxAttempts(n int) *SQSPushScheduler {
	if n > 0 {
		s.maxAttempts = n
	}
	return s
}

// WithRetryDelay overrides the pause between attempts.
func (s *SQSPushScheduler) WithRetryDelay(d time.Duration) *SQSPushScheduler {
	if d > 0 {
		s.retryDelay = d
	}
	return s
}

// Schedule enqueues one notification for delivery at the given instant.
func (s *SQSPushScheduler) Schedule(ctx context.Context, patientID, title, body string, at time.Time) error {
	job := PushJob{
		PatientID: patientID,
		Title:     title,
		Body:      body,
		DeliverAt: at.UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("notify: marshal push job: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"patientId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(patientID),
			},
		},
	}
	// SQS delay is capped at 15 minutes; it only shaves early polling,
	// the pipeline still honors DeliverAt.
	if delay := time.Until(at); delay > 0 {
		seconds := int32(delay / time.Second)
		if seconds > 900 {
			seconds = 900
		}
		input.DelaySeconds = seconds
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		_, err := s.client.SendMessage(attemptCtx, input)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("notify: schedule push: %w", ctx.Err())
			case <-time.After(s.retryDelay):
			}
		}
	}
	return fmt.Errorf("notify: schedule push after %d attempts: %w", s.maxAttempts, lastErr)
}
