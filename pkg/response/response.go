package response

import (
	"errors"
	"net/http"

	apperrors "github.com/biolab/datalab/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Success sends a successful JSON response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error sends an error JSON response. Only AppError details reach the client.
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			_ = c.Error(appErr.Err)
		}
		c.AbortWithStatusJSON(appErr.Status, envelope(appErr.Code, appErr.Message))
		return
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, envelope(apperrors.ErrCodeInternalError, "Internal server error"))
}

// ValidationError sends a validation error response
func ValidationError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, envelope(apperrors.ErrCodeValidationFailed, message))
}

// Abort sends an error envelope with an explicit status and code
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, envelope(code, message))
}

func envelope(code, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
