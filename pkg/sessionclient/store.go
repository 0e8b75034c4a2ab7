// Package sessionclient keeps the client side of a DataLab session: who is
// logged in, and the credential attached to API calls.
package sessionclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultCookieName matches the server's session cookie
	DefaultCookieName = "auth_token"

	// MaxLifetime caps how long a stored credential is kept
	MaxLifetime = 7 * 24 * time.Hour

	verifyPath = "/api/auth/verify"
	loginPath  = "/api/auth/login"
)

// State is the position in the session state machine
type State int

const (
	Loading State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "loading"
	}
}

// Identity is the public view of the logged-in user
type Identity struct {
	ID          string `json:"id"`
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
}

// ErrLoginRejected is returned by LoginWithPassword when the server refuses
var ErrLoginRejected = errors.New("login rejected")

// Store tracks the session of one client. Safe for concurrent use.
type Store struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookieName string
	logger     *zap.Logger

	mu         sync.RWMutex
	state      State
	identity   Identity
	generation uint64
}

// Option configures a Store
type Option func(*Store)

// WithHTTPClient sets the transport. Its Jar, when nil, is replaced.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) { s.httpClient = client }
}

// WithCookieName overrides DefaultCookieName
func WithCookieName(name string) Option {
	return func(s *Store) { s.cookieName = name }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store in the Loading state for the server at baseURL
func New(baseURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	s := &Store{
		baseURL:    u,
		cookieName: DefaultCookieName,
		state:      Loading,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if s.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		client := *s.httpClient
		client.Jar = jar
		s.httpClient = &client
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// State returns the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether the state is Authenticated
func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Identity returns the logged-in identity, if any
func (s *Store) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated {
		return Identity{}, false
	}
	return s.identity, true
}

// Token returns the stored credential
func (s *Store) Token() (string, bool) {
	for _, c := range s.httpClient.Jar.Cookies(s.baseURL) {
		if c.Name == s.cookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Init verifies the stored credential with the server and settles the state
// on Authenticated or Anonymous. If Login or Logout runs while the request is
// in flight, the result is discarded. Cancelling ctx restores the previous
// state and keeps the stored credential.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	prevState, prevIdentity := s.state, s.identity
	s.state = Loading
	s.mu.Unlock()

	tokenString, ok := s.Token()
	if !ok {
		s.settle(gen, nil)
		return nil
	}

	identity, err := s.verify(ctx, tokenString)
	if ctx.Err() != nil {
		s.abandon(gen, prevState, prevIdentity)
		return ctx.Err()
	}
	if err != nil {
		s.logger.Debug("stored session rejected", zap.Error(err))
	}
	s.settle(gen, identity)
	return err
}

// abandon undoes the Loading transition of a cancelled Init. The stored
// credential is left alone.
func (s *Store) abandon(gen uint64, state State, identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.logger.Debug("session check abandoned")
	s.state = state
	s.identity = identity
}

func (s *Store) verify(ctx context.Context, tokenString string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(verifyPath), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("verify returned %d", resp.StatusCode)
	}

	var body struct {
		Success bool     `json:"success"`
		User    Identity `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	if !body.Success || body.User.ID == "" {
		return nil, errors.New("verify response carried no user")
	}
	return &body.User, nil
}

// settle applies an Init outcome unless a newer transition happened
func (s *Store) settle(gen uint64, identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("discarding superseded session check")
		return
	}
	if identity == nil {
		s.clearCookie()
		s.state = Anonymous
		s.identity = Identity{}
		return
	}
	s.state = Authenticated
	s.identity = *identity
}

// Login stores the credential and moves to Authenticated
func (s *Store) Login(tokenString string, identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.httpClient.Jar.SetCookies(s.baseURL, []*http.Cookie{s.sessionCookie(tokenString, int(MaxLifetime.Seconds()))})
	s.state = Authenticated
	s.identity = identity
}

// LoginWithPassword authenticates against the server and then calls Login
func (s *Store) LoginWithPassword(ctx context.Context, externalID, password string) (Identity, error) {
	payload, err := json.Marshal(map[string]string{"externalId": externalID, "password": password})
	if err != nil {
		return Identity{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(loginPath), bytes.NewReader(payload))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Identity{}, fmt.Errorf("%w: status %d", ErrLoginRejected, resp.StatusCode)
	}

	var body struct {
		Token string   `json:"token"`
		User  Identity `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("failed to decode login response: %w", err)
	}
	if body.Token == "" {
		return Identity{}, fmt.Errorf("%w: no token in response", ErrLoginRejected)
	}

	s.Login(body.Token, body.User)
	return body.User, nil
}

// Logout erases the credential and moves to Anonymous
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutLocked()
}

func (s *Store) logoutLocked() {
	s.generation++
	s.clearCookie()
	s.state = Anonymous
	s.identity = Identity{}
}

// Do sends req with the stored credential attached. A 401 answer means the
// session is gone, so the store drops to Anonymous, unless a Login, Logout
// or Init happened while the request was in flight.
func (s *Store) Do(req *http.Request) (*http.Response, error) {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	if tokenString, ok := s.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		s.dropSession(gen, req.URL.Path)
	}
	return resp, nil
}

func (s *Store) dropSession(gen uint64, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("ignoring 401 for a superseded session", zap.String("path", path))
		return
	}
	s.logger.Debug("session rejected by server", zap.String("path", path))
	s.logoutLocked()
}

func (s *Store) endpoint(path string) string {
	u := *s.baseURL
	u.Path += path
	return u.String()
}

// clearCookie must be called with mu held
func (s *Store) clearCookie() {
	s.httpClient.Jar.SetCookies(s.baseURL, []*http.Cookie{s.sessionCookie("", -1)})
}

func (s *Store) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   !isLocalHost(s.baseURL.Hostname()),
		SameSite: http.SameSiteStrictMode,
	}
}

func isLocalHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
