package mail

import (
	"context"
	"net/http"

	apperrors "github.com/biolab/datalab/pkg/errors"
	"github.com/biolab/datalab/pkg/response"
	"github.com/gin-gonic/gin"
)

// Sender delivers email
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Handler serves the email endpoint
type Handler struct {
	sender Sender
}

// NewHandler creates a new email handler
func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

// Send queues an email with Graph
// POST /api/email/send
func (h *Handler) Send(c *gin.Context) {
	var m Message
	if err := c.ShouldBindJSON(&m); err != nil {
		response.ValidationError(c, "to, subject and body are required; to must hold valid addresses")
		return
	}

	if err := h.sender.Send(c.Request.Context(), m); err != nil {
		response.Error(c, apperrors.ErrUpstream.Wrap(err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}
