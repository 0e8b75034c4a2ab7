package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/biolab/datalab/internal/gate"
	"github.com/biolab/datalab/internal/token"
	apperrors "github.com/biolab/datalab/pkg/errors"
	"github.com/biolab/datalab/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const claimsKey = "claims"

// Auth authenticates API requests from the Authorization: Bearer header
func Auth(verifier gate.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Missing or invalid Authorization header")
			return
		}

		claims, err := verifier.Verify(tokenString)
		RecordSessionVerification(verificationResult(err))
		if err != nil {
			logger.Debug("api token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Error(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequirePermission rejects callers whose claims lack permission. The admin
// role passes every check. Must run after Auth.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		if !claims.HasRole("admin") && !claims.HasPermission(permission) {
			response.Error(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the claims placed by Auth or PageGate
func ClaimsFromContext(c *gin.Context) (*token.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*token.Claims)
	return claims, ok
}

// BearerToken extracts the credential from an Authorization header value
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	tokenString := strings.TrimSpace(header[7:])
	return tokenString, tokenString != ""
}

func verificationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, token.ErrTokenExpired):
		return "expired"
	default:
		return "invalid"
	}
}
