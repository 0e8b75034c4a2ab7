package assistant

import (
	"context"
	"io"
	"net/http"

	apperrors "github.com/biolab/datalab/pkg/errors"
	"github.com/biolab/datalab/pkg/response"
	"github.com/gin-gonic/gin"
)

const maxAudioBytes = 25 << 20

// Assistant is what the handler needs from Service
type Assistant interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (string, error)
}

// Handler serves the assistant endpoints
type Handler struct {
	assistant Assistant
}

// NewHandler creates a new assistant handler
func NewHandler(assistant Assistant) *Handler {
	return &Handler{assistant: assistant}
}

type chatRequest struct {
	Messages []Message `json:"messages" binding:"required,min=1,dive"`
}

// Chat answers a conversation
// POST /api/assistant/chat
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "messages must be a non-empty list of {role, content}")
		return
	}

	reply, err := h.assistant.Chat(c.Request.Context(), req.Messages)
	if err != nil {
		response.Error(c, apperrors.ErrUpstream.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// Transcribe converts an uploaded audio file to text
// POST /api/assistant/transcribe
func (h *Handler) Transcribe(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.ValidationError(c, "file is required")
		return
	}
	if header.Size > maxAudioBytes {
		response.ValidationError(c, "file exceeds 25MB")
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	text, err := h.assistant.Transcribe(c.Request.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		response.Error(c, apperrors.ErrUpstream.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}
