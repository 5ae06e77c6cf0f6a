package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/pkg/logging"
)

// Service sends receipt emails mirroring the in-app confirmation alert.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil email sender disables
// receipts without disabling intake logging.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// SendIntakeReceipt emails the patient that their dose was registered.
// Best-effort: the intake is already recorded when this runs.
func (s *Service) SendIntakeReceipt(ctx context.Context, patient records.Patient, medication string, takenAt time.Time) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping receipt")
		return nil
	}
	if patient.Email == "" {
		s.logger.Debug("notify: patient has no email, skipping receipt",
			"patient_id", patient.ID)
		return nil
	}

	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: fmt.Sprintf("Dose registered: %s", medication),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour intake of %s was registered on %s.\n\nKeep it up!\nYour clinic care team",
			patient.Name, medication, takenAt.Format("January 2, 2006 at 3:04 PM"),
		),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: intake receipt: %w", err)
	}
	return nil
}
