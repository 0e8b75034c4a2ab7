package web

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/biolab/datalab/internal/middleware"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// Handler renders the landing page and the dashboard shell
type Handler struct{}

// NewHandler creates a new page handler
func NewHandler() *Handler {
	return &Handler{}
}

// Landing renders the public login page
// GET /
func (h *Handler) Landing(c *gin.Context) {
	c.HTML(http.StatusOK, "landing.html", nil)
}

// Dashboard renders the shell for any /datalab page. PageGate has already
// placed verified claims in the context.
// GET /datalab/*section
func (h *Handler) Dashboard(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Redirect(http.StatusTemporaryRedirect, "/")
		return
	}

	section := strings.Trim(c.Param("section"), "/")
	if section == "" {
		section = "inicio"
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"DisplayName": claims.DisplayName,
		"Section":     section,
	})
}
