package reminders

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Marker keys follow the record they guard. Presence means every reminder
// for the record has been enqueued; the value itself is a sentinel.
const markerSentinel = "1"

// AppointmentMarkerKey is the idempotency key for an appointment's reminders.
func AppointmentMarkerKey(id string) string { return "appointment_" + id }

// PrescriptionMarkerKey is the idempotency key for a prescription's reminders.
func PrescriptionMarkerKey(id string) string { return "prescription_" + id }

// MarkerStore persists scheduled-reminder markers. Markers are written once
// and cleared only by a full store reset.
type MarkerStore interface {
	Get(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string) error
}

// RedisMarkerStore keeps markers in Redis so they survive restarts.
type RedisMarkerStore struct {
	redis *redis.Client
}

// NewRedisMarkerStore creates a marker store on the given client.
func NewRedisMarkerStore(client *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{redis: client}
}

func (s *RedisMarkerStore) key(marker string) string {
	return fmt.Sprintf("reminders:marker:%s", marker)
}

// Get reports whether the marker is present.
func (s *RedisMarkerStore) Get(ctx context.Context, marker string) (bool, error) {
	_, err := s.redis.Get(ctx, s.key(marker)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reminders: get marker: %w", err)
	}
	return true, nil
}

// Set writes the marker.
func (s *RedisMarkerStore) Set(ctx context.Context, marker string) error {
	if err := s.redis.Set(ctx, s.key(marker), markerSentinel, 0).Err(); err != nil {
		return fmt.Errorf("reminders: set marker: %w", err)
	}
	return nil
}
