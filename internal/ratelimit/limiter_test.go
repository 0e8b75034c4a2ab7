package ratelimit

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestKeys(t *testing.T) {
	attempt := attemptKey("1032456789", "10.0.0.1")
	lockout := lockoutKey("1032456789", "10.0.0.1")

	if attempt == lockout {
		t.Fatalf("attempt and lockout keys collide: %q", attempt)
	}

	for _, key := range []string{attempt, lockout} {
		if !strings.HasPrefix(key, "datalab:ratelimit:") {
			t.Errorf("key %q lacks the datalab:ratelimit: prefix", key)
		}
		if !strings.HasSuffix(key, ":10.0.0.1:1032456789") {
			t.Errorf("key %q does not end with ip and account", key)
		}
	}
}

func TestNewLimiter_DefaultsLogger(t *testing.T) {
	l := NewLimiter(nil, 0, 5, 0, nil)
	if l.logger == nil {
		t.Error("logger = nil, want no-op logger")
	}
}

func TestLimiter_LockoutFlow(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("ParseURL() failed: %v", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	const externalID, ip = "1032456789", "10.0.0.99"
	l := NewLimiter(client, time.Minute, 2, time.Minute, nil)
	defer l.ClearLockout(ctx, externalID, ip)

	for i := 0; i < 2; i++ {
		allowed, _, _, err := l.CheckLoginAttempt(ctx, externalID, ip)
		if err != nil || !allowed {
			t.Fatalf("attempt %d: allowed = %v, err = %v", i, allowed, err)
		}
		if err := l.RecordFailedAttempt(ctx, externalID, ip); err != nil {
			t.Fatalf("RecordFailedAttempt() failed: %v", err)
		}
	}

	allowed, _, lockout, err := l.CheckLoginAttempt(ctx, externalID, ip)
	if err != nil {
		t.Fatalf("CheckLoginAttempt() failed: %v", err)
	}
	if allowed || lockout <= 0 {
		t.Errorf("allowed = %v, lockout = %v; want blocked", allowed, lockout)
	}

	if err := l.ClearLockout(ctx, externalID, ip); err != nil {
		t.Fatalf("ClearLockout() failed: %v", err)
	}
	if allowed, remaining, _, _ := l.CheckLoginAttempt(ctx, externalID, ip); !allowed || remaining != 2 {
		t.Errorf("after ClearLockout: allowed = %v, remaining = %d; want true, 2", allowed, remaining)
	}
}
