package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	c, w := newContext(t)
	c.Set("userRole", "CANDIDATE")

	RequireRole("CANDIDATE", "ADMIN")(c)

	if c.IsAborted() {
		t.Fatalf("expected request to pass, got status %d", w.Code)
	}
}

func TestRequireRole_DeniesOtherRole(t *testing.T) {
	c, w := newContext(t)
	c.Set("userRole", "RECRUITER")

	RequireRole("CANDIDATE")(c)

	if !c.IsAborted() || w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireRole_MissingRoleUnauthorized(t *testing.T) {
	c, w := newContext(t)

	RequireRole("CANDIDATE")(c)

	if !c.IsAborted() || w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPasswordGate_BlocksPendingChange(t *testing.T) {
	c, w := newContext(t)
	c.Set("mustChangePassword", true)

	RequirePasswordChangeCompletedMiddleware()(c)

	if !c.IsAborted() || w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestPasswordGate_AllowsCompletedChange(t *testing.T) {
	c, w := newContext(t)
	c.Set("mustChangePassword", false)

	RequirePasswordChangeCompletedMiddleware()(c)

	if c.IsAborted() {
		t.Fatalf("expected request to pass, got status %d", w.Code)
	}
}

func TestCorrelationID_GeneratesWhenMissing(t *testing.T) {
	c, w := newContext(t)

	CorrelationIDMiddleware()(c)

	if GetCorrelationID(c) == "" {
		t.Fatal("expected a generated correlation id")
	}
	if w.Header().Get("X-Correlation-ID") == "" {
		t.Fatal("expected correlation id response header")
	}
}

func TestCorrelationID_KeepsProvided(t *testing.T) {
	c, _ := newContext(t)
	c.Request.Header.Set("X-Correlation-ID", "req-123")

	CorrelationIDMiddleware()(c)

	if got := GetCorrelationID(c); got != "req-123" {
		t.Fatalf("expected req-123, got %q", got)
	}
}
