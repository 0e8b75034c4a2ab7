package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/biolab/datalab/internal/token"
	"github.com/biolab/datalab/internal/user"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-minimum-32-chars"

type attempt struct {
	externalID string
	success    bool
}

type fakeAccounts struct {
	mu        sync.Mutex
	accounts  map[string]*user.Account
	attempts  []attempt
	loggedOn  []string
	lookupErr error
}

func (f *fakeAccounts) FindByExternalID(_ context.Context, externalID string) (*user.Account, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.accounts[externalID], nil
}

func (f *fakeAccounts) UpdateLastLoggedOn(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOn = append(f.loggedOn, id)
	return nil
}

func (f *fakeAccounts) RecordLoginAttempt(_ context.Context, externalID, _ string, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt{externalID: externalID, success: success})
	return nil
}

type fakeLimiter struct {
	blocked   bool
	failures  int
	successes int
}

func (f *fakeLimiter) CheckLoginAttempt(context.Context, string, string) (bool, int, time.Duration, error) {
	if f.blocked {
		return false, 0, 10 * time.Minute, nil
	}
	return true, 5, 0, nil
}

func (f *fakeLimiter) RecordFailedAttempt(context.Context, string, string) error {
	f.failures++
	return nil
}

func (f *fakeLimiter) RecordSuccessfulAttempt(context.Context, string, string) error {
	f.successes++
	return nil
}

func testAccount(t *testing.T, password string) *user.Account {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() failed: %v", err)
	}
	return &user.Account{
		ID:             "recUSR001",
		ExternalID:     "1032456789",
		DisplayName:    "Laura Gómez",
		Roles:          pq.StringArray{"lab"},
		Permissions:    pq.StringArray{"inventory:read"},
		PasswordDigest: string(digest),
		Active:         true,
	}
}

func newTestService(t *testing.T, now time.Time) (*Service, *fakeAccounts, *fakeLimiter) {
	t.Helper()
	sessions, err := token.NewService(testSecret, token.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("token.NewService() failed: %v", err)
	}
	accounts := &fakeAccounts{accounts: map[string]*user.Account{}}
	account := testAccount(t, "secreto123")
	accounts.accounts[account.ExternalID] = account

	limiter := &fakeLimiter{}
	return NewService(accounts, sessions, limiter, nil), accounts, limiter
}
