package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/biolab/datalab/internal/middleware"
	"github.com/biolab/datalab/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t, time.Now())
	h := NewHandler(svc, "", true)

	router := gin.New()
	api := router.Group("/api/auth")
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)
	api.GET("/verify", h.Verify)
	api.GET("/me", middleware.Auth(svc.sessions, zap.NewNop()), h.Me)
	return router, svc
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == token.DefaultCookieName {
			return c
		}
	}
	return nil
}

func TestHandlerLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/auth/login", `{"externalId":"1.032.456.789","password":"secreto123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var body struct {
		Success bool        `json:"success"`
		Token   string      `json:"token"`
		User    UserSummary `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !body.Success || body.Token == "" {
		t.Fatalf("body = %+v, want success with a token", body)
	}
	if body.User.ExternalID != "1032456789" {
		t.Errorf("user.externalId = %q, want %q", body.User.ExternalID, "1032456789")
	}

	cookie := sessionCookie(w)
	if cookie == nil {
		t.Fatal("login did not set the session cookie")
	}
	if cookie.Value != body.Token {
		t.Errorf("cookie value differs from returned token")
	}
	if !cookie.Secure {
		t.Error("cookie should be Secure outside development")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("SameSite = %v, want Strict", cookie.SameSite)
	}
	if cookie.MaxAge != int(token.Lifetime.Seconds()) {
		t.Errorf("MaxAge = %d, want %d", cookie.MaxAge, int(token.Lifetime.Seconds()))
	}
}

func TestHandlerLogin_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed json", `{"externalId":`, http.StatusBadRequest},
		{"missing password", `{"externalId":"1032456789"}`, http.StatusBadRequest},
		{"short password", `{"externalId":"1032456789","password":"123"}`, http.StatusBadRequest},
		{"wrong password", `{"externalId":"1032456789","password":"otraclave"}`, http.StatusUnauthorized},
		{"unknown account", `{"externalId":"9999999999","password":"secreto123"}`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t)
			w := postJSON(router, "/api/auth/login", tt.body)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if sessionCookie(w) != nil {
				t.Error("failed login should not set a cookie")
			}
		})
	}
}

func TestHandlerLogout(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/auth/logout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	cookie := sessionCookie(w)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("logout cookie = %+v, want an expired cookie", cookie)
	}
}

func TestHandlerVerify(t *testing.T) {
	router, svc := newTestRouter(t)
	valid, _, err := svc.sessions.Issue(testAccount(t, "x").Identity())
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing", "", http.StatusUnauthorized, "missing authorization token"},
		{"invalid", "Bearer nope", http.StatusUnauthorized, "invalid or expired token"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body struct {
				Error string      `json:"error"`
				User  UserSummary `json:"user"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if tt.wantError == "" && body.User.ID != "recUSR001" {
				t.Errorf("user.id = %q, want %q", body.User.ID, "recUSR001")
			}
		})
	}
}

func TestHandlerMe(t *testing.T) {
	router, svc := newTestRouter(t)
	valid, _, err := svc.sessions.Issue(testAccount(t, "x").Identity())
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Data struct {
			Roles       []string `json:"roles"`
			Permissions []string `json:"permissions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Data.Roles) != 1 || body.Data.Roles[0] != "lab" {
		t.Errorf("roles = %v, want [lab]", body.Data.Roles)
	}
	if len(body.Data.Permissions) != 1 || body.Data.Permissions[0] != "inventory:read" {
		t.Errorf("permissions = %v, want [inventory:read]", body.Data.Permissions)
	}
}
