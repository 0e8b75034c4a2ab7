package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/biolab/datalab/internal/middleware"
	"github.com/biolab/datalab/internal/token"
	apperrors "github.com/biolab/datalab/pkg/errors"
	"github.com/biolab/datalab/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles authentication HTTP requests
type Handler struct {
	service       *Service
	cookieName    string
	secureCookies bool
}

// NewHandler creates a new authentication handler
func NewHandler(service *Service, cookieName string, secureCookies bool) *Handler {
	if cookieName == "" {
		cookieName = token.DefaultCookieName
	}
	return &Handler{
		service:       service,
		cookieName:    cookieName,
		secureCookies: secureCookies,
	}
}

// Login handles external ID / password login
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	start := time.Now()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "externalId and password are required")
		return
	}
	if err := ValidateLoginRequest(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	result, err := h.service.Authenticate(c.Request.Context(), req.ExternalID, req.Password, c.ClientIP())
	if err != nil {
		status := "failure"
		if errors.Is(err, apperrors.ErrRateLimitExceeded) {
			status = "blocked"
			middleware.RecordRateLimitHit()
		}
		middleware.RecordLoginAttempt(status, time.Since(start))
		response.Error(c, err)
		return
	}
	middleware.RecordLoginAttempt("success", time.Since(start))

	http.SetCookie(c.Writer, token.NewCookie(h.cookieName, result.Token, h.secureCookies))
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.UTC(),
		"user":      SummaryFromClaims(result.Claims),
	})
}

// Logout discards the session cookie. Tokens are stateless, so nothing is
// revoked server-side.
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, token.ExpiredCookie(h.cookieName, h.secureCookies))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Verify checks the Bearer credential and returns the identity behind it
// GET /api/auth/verify
func (h *Handler) Verify(c *gin.Context) {
	tokenString, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
		return
	}

	claims, ok := h.service.Verify(tokenString)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    SummaryFromClaims(claims),
	})
}

// Me returns the full claims of the authenticated caller
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":        SummaryFromClaims(claims),
		"employeeId":  claims.EmployeeID,
		"roles":       claims.Roles,
		"permissions": claims.Permissions,
		"expiresAt":   claims.ExpiresAtTime().UTC(),
	})
}
