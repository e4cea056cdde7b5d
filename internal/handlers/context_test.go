package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// A handler registered without its guard chain must answer the same way the
// guards report mis-ordering, not panic on missing context.
func TestMemberList_WithoutGuardChain(t *testing.T) {
	r := gin.New()
	h := NewMemberHandler(services.NewMembershipService(nil, nil, nil))
	r.GET("/projects/:id/members", h.List)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/1/members", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "handler ran before membership check") {
		t.Errorf("body = %s, expected the guard mis-wiring message", w.Body.String())
	}
}

func TestProjectCreate_WithoutAuthGuard(t *testing.T) {
	r := gin.New()
	h := NewProjectHandler(services.NewProjectService(nil, nil, nil))
	r.POST("/projects", h.Create)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"name":"alpha"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "handler ran before authentication") {
		t.Errorf("body = %s, expected the guard mis-wiring message", w.Body.String())
	}
}
