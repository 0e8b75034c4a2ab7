package middleware

import (
	"net/http"

	"github.com/biolab/datalab/internal/gate"
	"github.com/biolab/datalab/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageGate enforces the gate policy on page navigation using the session cookie
func PageGate(policy *gate.Policy, cookieName string, secureCookies bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, _ := c.Cookie(cookieName)

		decision := policy.Decide(c.Request.URL.Path, credential)
		if decision.Claims != nil || decision.VerifyErr != nil {
			RecordSessionVerification(verificationResult(decision.VerifyErr))
		}
		if decision.Allow {
			if decision.Claims != nil {
				RecordGateDecision("allow")
				c.Set(claimsKey, decision.Claims)
			}
			c.Next()
			return
		}

		RecordGateDecision("redirect")
		if decision.ClearCookie {
			http.SetCookie(c.Writer, token.ExpiredCookie(cookieName, secureCookies))
		}
		logger.Debug("page request redirected",
			zap.String("path", c.Request.URL.Path),
			zap.Bool("had_cookie", credential != ""),
			zap.Error(decision.VerifyErr),
		)
		c.Redirect(http.StatusTemporaryRedirect, decision.RedirectTo)
		c.Abort()
	}
}
