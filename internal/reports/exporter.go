// Package reports builds patient history exports: intake confirmations and
// vital sign readings.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/pkg/logging"
)

// S3API is the subset of the S3 client used by Exporter.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// IntakeHistoryCSV renders confirmations (expected newest first) as CSV.
func IntakeHistoryCSV(confirmations []records.IntakeConfirmation) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"patient_id", "prescription_id", "medication", "taken_at"}); err != nil {
		return nil, fmt.Errorf("reports: write header: %w", err)
	}
	for _, c := range confirmations {
		if err := w.Write([]string{c.PatientID, c.PrescriptionID, c.MedicationName, c.TakenAt}); err != nil {
			return nil, fmt.Errorf("reports: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("reports: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// VitalSignsCSV renders readings (expected newest first) as CSV.
func VitalSignsCSV(vitals []records.VitalSign) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"patient_id", "type", "value", "recorded_at"}); err != nil {
		return nil, fmt.Errorf("reports: write header: %w", err)
	}
	for _, v := range vitals {
		if err := w.Write([]string{v.PatientID, v.Type, v.Value, v.RecordedAt}); err != nil {
			return nil, fmt.Errorf("reports: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("reports: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Exporter archives reports to S3. If bucket is empty, archival is a no-op.
type Exporter struct {
	s3Client S3API
	bucket   string
	logger   *logging.Logger
	now      func() time.Time
}

// NewExporter creates a report exporter.
func NewExporter(s3Client S3API, bucket string, logger *logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Exporter{s3Client: s3Client, bucket: bucket, logger: logger, now: time.Now}
}

// WithClock overrides the wall clock, for tests.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	if now != nil {
		e.now = now
	}
	return e
}

// Enabled returns true if archival is configured.
func (e *Exporter) Enabled() bool {
	return e != nil && e.bucket != "" && e.s3Client != nil
}

// Archive stores a patient report under the given kind ("intakes",
// "vitals") and returns its object key.
func (e *Exporter) Archive(ctx context.Context, kind, patientID string, csvData []byte) (string, error) {
	if !e.Enabled() {
		return "", nil
	}

	now := e.now().UTC()
	key := fmt.Sprintf("reports/%s/%d/%02d/%02d/%s.csv",
		kind, now.Year(), now.Month(), now.Day(), patientID)

	_, err := e.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(csvData),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("reports: s3 put %s: %w", key, err)
	}

	e.logger.Info("reports: archived patient report",
		"kind", kind, "patient_id", patientID, "s3_key", key, "bytes", len(csvData))
	return key, nil
}
