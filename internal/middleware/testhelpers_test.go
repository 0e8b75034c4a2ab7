package middleware

import (
	"testing"
	"time"

	"github.com/biolab/datalab/internal/token"
	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret-key-minimum-32-chars"

func init() {
	gin.SetMode(gin.TestMode)
}

func testSessions(t *testing.T, now time.Time) *token.Service {
	t.Helper()
	s, err := token.NewService(testSecret, token.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	return s
}

func issue(t *testing.T, s *token.Service, identity token.Identity) string {
	t.Helper()
	tokenString, _, err := s.Issue(identity)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	return tokenString
}

var labIdentity = token.Identity{
	SubjectID:   "recUSR001",
	ExternalID:  "1032456789",
	DisplayName: "Laura Gómez",
	Roles:       []string{"lab"},
	Permissions: []string{"inventory:read"},
}
