package fields

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the fields service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches field extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/extract", h.enqueue)
	rg.GET("/documents/:id/fields", h.get)
}

func (h *Handler) enqueue(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	taskID, err := h.Svc.Enqueue(c.Request.Context(), documentID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to schedule extraction", nil)
		return
	}
	respond.Accepted(c, gin.H{
		"message": "Field extraction scheduled.",
		"taskId":  taskID,
	})
}

func (h *Handler) get(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	values, err := h.Svc.Get(c.Request.Context(), documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotExtracted):
			respond.Error(c, http.StatusNotFound, "not_found", "fields not extracted for document", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch fields", nil)
		}
		return
	}
	respond.OK(c, gin.H{
		"documentId":    documentID,
		"schemaVersion": SchemaVersion,
		"fields":        values,
	})
}
