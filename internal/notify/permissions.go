package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PermissionStatus is the device notification permission a patient reported.
type PermissionStatus string

const (
	PermissionUnknown PermissionStatus = "unknown"
	PermissionGranted PermissionStatus = "granted"
	PermissionDenied  PermissionStatus = "denied"
)

// ValidPermissionStatus reports whether s is a status the app may register.
func ValidPermissionStatus(s PermissionStatus) bool {
	return s == PermissionGranted || s == PermissionDenied
}

// PermissionStore keeps each patient's reported notification permission.
// Denied or unreported permission downgrades to reduced functionality:
// planning is skipped, nothing crashes.
type PermissionStore struct {
	redis *redis.Client
}

// NewPermissionStore creates a permission store on the given client.
func NewPermissionStore(client *redis.Client) *PermissionStore {
	return &PermissionStore{redis: client}
}

func (s *PermissionStore) key(patientID string) string {
	return fmt.Sprintf("notify:permission:%s", patientID)
}

// Get returns the patient's status, PermissionUnknown when never reported.
func (s *PermissionStore) Get(ctx context.Context, patientID string) (PermissionStatus, error) {
	val, err := s.redis.Get(ctx, s.key(patientID)).Result()
	if err == redis.Nil {
		return PermissionUnknown, nil
	}
	if err != nil {
		return PermissionUnknown, fmt.Errorf("notify: get permission: %w", err)
	}
	return PermissionStatus(val), nil
}

// Set records the status the app reported after prompting the patient.
func (s *PermissionStore) Set(ctx context.Context, patientID string, status PermissionStatus) error {
	if !ValidPermissionStatus(status) {
		return fmt.Errorf("notify: invalid permission status %q", status)
	}
	if err := s.redis.Set(ctx, s.key(patientID), string(status), 0).Err(); err != nil {
		return fmt.Errorf("notify: set permission: %w", err)
	}
	return nil
}

// Granted reports whether push planning may proceed for the patient.
func (s *PermissionStore) Granted(ctx context.Context, patientID string) (bool, error) {
	status, err := s.Get(ctx, patientID)
	if err != nil {
		return false, err
	}
	return status == PermissionGranted, nil
}
