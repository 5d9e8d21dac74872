package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/audit"
	"contract-backend/internal/documents"
	"contract-backend/internal/fields"
	"contract-backend/internal/jobs"
	"contract-backend/internal/questions"
	"contract-backend/internal/shared/config"
	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/server/middleware"
	"contract-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router registers.
type RouterDeps struct {
	Config           config.Config
	DocumentsHandler *documents.Handler
	QuestionsHandler *questions.Handler
	FieldsHandler    *fields.Handler
	AuditHandler     *audit.Handler
	JobsHandler      *jobs.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.AllowedOrigins),
	)

	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}
	if deps.QuestionsHandler != nil {
		deps.QuestionsHandler.RegisterRoutes(api)
	}
	if deps.FieldsHandler != nil {
		deps.FieldsHandler.RegisterRoutes(api)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.RegisterRoutes(api)
	}
	if deps.JobsHandler != nil {
		deps.JobsHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
