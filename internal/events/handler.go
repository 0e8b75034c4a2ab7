package events

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/biolab/datalab/internal/middleware"
	apperrors "github.com/biolab/datalab/pkg/errors"
	"github.com/biolab/datalab/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves the calendar endpoints
type Handler struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewHandler creates a new calendar handler
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, now: time.Now, logger: logger}
}

// CreateRequest is the body of POST /api/calendar/events
type CreateRequest struct {
	Title       string    `json:"title" binding:"required"`
	Start       time.Time `json:"start" binding:"required"`
	End         time.Time `json:"end" binding:"required,gtefield=Start"`
	AllDay      bool      `json:"allDay"`
	Description string    `json:"description"`
}

// List returns every event
// GET /api/calendar/events
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// Create adds an event owned by the caller
// POST /api/calendar/events
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "title, start and end are required; end must not precede start")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		response.ValidationError(c, "title is required")
		return
	}

	event := Event{
		ID:          uuid.NewString(),
		Title:       title,
		Start:       req.Start.UTC(),
		End:         req.End.UTC(),
		AllDay:      req.AllDay,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   h.now().UTC(),
	}
	if claims, ok := middleware.ClaimsFromContext(c); ok {
		event.CreatedBy = claims.SubjectID
	}

	if err := h.store.Create(c.Request.Context(), event); err != nil {
		response.Error(c, err)
		return
	}

	h.logger.Info("calendar event created", zap.String("event_id", event.ID), zap.String("created_by", event.CreatedBy))
	response.Success(c, http.StatusCreated, event)
}

// Delete removes an event
// DELETE /api/calendar/events/:id
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, apperrors.ErrNotFound)
			return
		}
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
