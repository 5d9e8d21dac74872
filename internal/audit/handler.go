package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the audit service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/audit", h.enqueue)
	rg.GET("/documents/:id/findings", h.findings)
}

func (h *Handler) enqueue(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	taskID, err := h.Svc.Enqueue(c.Request.Context(), documentID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to schedule audit", nil)
		return
	}
	respond.Accepted(c, gin.H{
		"message": "Audit scheduled.",
		"taskId":  taskID,
	})
}

func (h *Handler) findings(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	findings, err := h.Svc.Findings(c.Request.Context(), documentID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch findings", nil)
		return
	}
	respond.OK(c, gin.H{
		"documentId": documentID,
		"findings":   findings,
	})
}
