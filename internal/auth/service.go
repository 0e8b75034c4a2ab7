package auth

import (
	"context"
	"time"

	"github.com/biolab/datalab/internal/token"
	"github.com/biolab/datalab/internal/user"
	apperrors "github.com/biolab/datalab/pkg/errors"
	"go.uber.org/zap"
)

// AccountStore is the identity source consulted at login
type AccountStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*user.Account, error)
	UpdateLastLoggedOn(ctx context.Context, id string) error
	RecordLoginAttempt(ctx context.Context, externalID, ipAddress string, success bool) error
}

// RateLimiter interface for rate limiting
type RateLimiter interface {
	CheckLoginAttempt(ctx context.Context, externalID, ipAddress string) (allowed bool, remaining int, lockoutRemaining time.Duration, err error)
	RecordFailedAttempt(ctx context.Context, externalID, ipAddress string) error
	RecordSuccessfulAttempt(ctx context.Context, externalID, ipAddress string) error
}

// Service handles the login flow on top of the session token service
type Service struct {
	accounts    AccountStore
	sessions    *token.Service
	rateLimiter RateLimiter
	logger      *zap.Logger

	verifyPassword func(password, digest string) error
}

// NewService creates a new authentication service. rateLimiter may be nil.
func NewService(accounts AccountStore, sessions *token.Service, rateLimiter RateLimiter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	unknownAccountDigest()
	return &Service{
		accounts:       accounts,
		sessions:       sessions,
		rateLimiter:    rateLimiter,
		logger:         logger,
		verifyPassword: VerifyPassword,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	ExternalID string `json:"externalId" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// UserSummary is the public view of an authenticated identity
type UserSummary struct {
	ID          string `json:"id"`
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
}

// SummaryFromClaims builds the public view from verified claims
func SummaryFromClaims(c *token.Claims) UserSummary {
	return UserSummary{ID: c.SubjectID, ExternalID: c.ExternalID, DisplayName: c.DisplayName}
}

// LoginResult is what a successful login yields
type LoginResult struct {
	Token     string
	Claims    *token.Claims
	ExpiresAt time.Time
}

// Authenticate checks credentials and issues a session token. Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, externalID, password, ipAddress string) (*LoginResult, error) {
	externalID = SanitizeExternalID(externalID)

	if s.rateLimiter != nil {
		allowed, _, lockoutRemaining, err := s.rateLimiter.CheckLoginAttempt(ctx, externalID, ipAddress)
		if err != nil {
			s.logger.Warn("rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			s.logger.Info("login blocked",
				zap.String("external_id", externalID),
				zap.Duration("lockout_remaining", lockoutRemaining.Round(time.Second)),
			)
			return nil, apperrors.ErrRateLimitExceeded
		}
	}

	account, err := s.accounts.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	digest := unknownAccountDigest()
	if account != nil {
		digest = account.PasswordDigest
	}
	if err := s.verifyPassword(password, digest); err != nil || account == nil {
		s.recordFailure(ctx, externalID, ipAddress)
		return nil, apperrors.ErrInvalidCredentials
	}

	s.recordSuccess(ctx, account, ipAddress)

	tokenString, claims, err := s.sessions.Issue(account.Identity())
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     tokenString,
		Claims:    claims,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// Verify checks a presented credential. Callers only learn whether it is
// acceptable; the failure class is logged, not returned.
func (s *Service) Verify(tokenString string) (*token.Claims, bool) {
	claims, err := s.sessions.Verify(tokenString)
	if err != nil {
		s.logger.Debug("session verification failed", zap.Error(err))
		return nil, false
	}
	return claims, true
}

func (s *Service) recordFailure(ctx context.Context, externalID, ipAddress string) {
	if err := s.accounts.RecordLoginAttempt(ctx, externalID, ipAddress, false); err != nil {
		s.logger.Warn("failed to record login attempt", zap.Error(err))
	}
	if s.rateLimiter != nil {
		if err := s.rateLimiter.RecordFailedAttempt(ctx, externalID, ipAddress); err != nil {
			s.logger.Warn("failed to record failed attempt", zap.Error(err))
		}
	}
}

func (s *Service) recordSuccess(ctx context.Context, account *user.Account, ipAddress string) {
	if err := s.accounts.RecordLoginAttempt(ctx, account.ExternalID, ipAddress, true); err != nil {
		s.logger.Warn("failed to record login attempt", zap.Error(err))
	}
	if s.rateLimiter != nil {
		if err := s.rateLimiter.RecordSuccessfulAttempt(ctx, account.ExternalID, ipAddress); err != nil {
			s.logger.Warn("failed to clear failed attempts", zap.Error(err))
		}
	}
	if err := s.accounts.UpdateLastLoggedOn(ctx, account.ID); err != nil {
		s.logger.Warn("failed to update last_logged_on", zap.Error(err))
	}
}
