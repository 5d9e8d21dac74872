package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/telemetry"
)

func TestRequestIDPropagatesToRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())

	var fromGin, fromCtx string
	router.GET("/ping", func(c *gin.Context) {
		fromGin = RequestIDFromContext(c)
		fromCtx = telemetry.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-abc" {
		t.Fatalf("expected header echoed, got %q", got)
	}
	if fromGin != "req-abc" {
		t.Fatalf("gin context id = %q", fromGin)
	}
	if fromCtx != "req-abc" {
		t.Fatalf("request context id = %q, services would lose correlation", fromCtx)
	}
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id")
	}
}
