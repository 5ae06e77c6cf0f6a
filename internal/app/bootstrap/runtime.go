package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/careloop/medreminder/internal/config"
	"github.com/careloop/medreminder/internal/notify"
	"github.com/careloop/medreminder/internal/reminders"
	"github.com/careloop/medreminder/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildLocation resolves the clinic timezone. Schedules are wall-clock
// local, so a bad timezone would shift every reminder; fail loudly.
func BuildLocation(cfg *appconfig.Config) (*time.Location, error) {
	tz := "UTC"
	if cfg != nil && strings.TrimSpace(cfg.ClinicTimezone) != "" {
		tz = cfg.ClinicTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load clinic timezone %q: %w", tz, err)
	}
	return loc, nil
}

// BuildMarkerStore returns the Redis-backed scheduled marker store.
func BuildMarkerStore(redisClient *redis.Client) *reminders.RedisMarkerStore {
	if redisClient == nil {
		return nil
	}
	return reminders.NewRedisMarkerStore(redisClient)
}

// BuildPermissionStore returns the notification permission store.
func BuildPermissionStore(redisClient *redis.Client) *notify.PermissionStore {
	if redisClient == nil {
		return nil
	}
	return notify.NewPermissionStore(redisClient)
}

// BuildEmailSender wires SES with SendGrid as fallback. Either may be
// unconfigured; with neither, intake receipts are skipped.
func BuildEmailSender(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	var senders []notify.EmailSender
	if ses := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
		FromEmail: cfg.SESFromEmail,
		FromName:  cfg.SESFromName,
	}, logger); ses != nil {
		senders = append(senders, ses)
	}
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		senders = append(senders, sg)
	}
	if len(senders) == 0 {
		logger.Warn("no email sender configured, intake receipts disabled")
		return nil
	}
	return notify.NewFailoverSender(logger, senders...)
}
