package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter throttles login attempts per (account, client IP) using Redis
type Limiter struct {
	client          redis.Cmdable
	window          time.Duration // counting window for failed attempts
	maxAttempts     int           // failures allowed inside the window
	lockoutDuration time.Duration // block length once the limit is hit
	logger          *zap.Logger
}

// NewLimiter creates a new login limiter
func NewLimiter(client redis.Cmdable, window time.Duration, maxAttempts int, lockoutDuration time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		client:          client,
		window:          window,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		logger:          logger,
	}
}

func attemptKey(externalID, ipAddress string) string {
	return fmt.Sprintf("datalab:ratelimit:login:%s:%s", ipAddress, externalID)
}

func lockoutKey(externalID, ipAddress string) string {
	return fmt.Sprintf("datalab:ratelimit:lockout:%s:%s", ipAddress, externalID)
}

// CheckLoginAttempt reports whether a login attempt may proceed, the
// failures still allowed, and the remaining lockout when blocked.
func (l *Limiter) CheckLoginAttempt(ctx context.Context, externalID, ipAddress string) (bool, int, time.Duration, error) {
	lockout := lockoutKey(externalID, ipAddress)

	ttl, err := l.client.TTL(ctx, lockout).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, 0, fmt.Errorf("failed to check lockout status: %w", err)
	}
	if ttl > 0 {
		return false, 0, ttl, nil
	}

	attempts := attemptKey(externalID, ipAddress)
	count, err := l.client.Get(ctx, attempts).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, 0, fmt.Errorf("failed to get attempt count: %w", err)
	}

	remaining := l.maxAttempts - count
	if remaining > 0 {
		return true, remaining, 0, nil
	}

	if err := l.client.Set(ctx, lockout, "1", l.lockoutDuration).Err(); err != nil {
		return false, 0, 0, fmt.Errorf("failed to set lockout: %w", err)
	}
	if err := l.client.Del(ctx, attempts).Err(); err != nil {
		l.logger.Warn("failed to clear attempt counter", zap.String("external_id", externalID), zap.Error(err))
	}
	return false, 0, l.lockoutDuration, nil
}

// RecordFailedAttempt counts a failed login inside the window
func (l *Limiter) RecordFailedAttempt(ctx context.Context, externalID, ipAddress string) error {
	key := attemptKey(externalID, ipAddress)

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record failed attempt: %w", err)
	}
	return nil
}

// RecordSuccessfulAttempt clears the failure counter
func (l *Limiter) RecordSuccessfulAttempt(ctx context.Context, externalID, ipAddress string) error {
	if err := l.client.Del(ctx, attemptKey(externalID, ipAddress)).Err(); err != nil {
		return fmt.Errorf("failed to clear attempt counter: %w", err)
	}
	return nil
}

// ClearLockout lifts a lockout and resets the counter
func (l *Limiter) ClearLockout(ctx context.Context, externalID, ipAddress string) error {
	if err := l.client.Del(ctx, lockoutKey(externalID, ipAddress), attemptKey(externalID, ipAddress)).Err(); err != nil {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}
	return nil
}
