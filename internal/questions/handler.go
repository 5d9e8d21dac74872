package questions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/documents"
	"contract-backend/internal/shared/server/respond"
	"contract-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the questions service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches question routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/questions", h.ask)
	rg.GET("/questions/:id", h.get)
	rg.GET("/questions/:id/stream", h.stream)
}

type askRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"documentIds"`
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	q, err := h.Svc.Ask(c.Request.Context(), req.Query, req.DocumentIDs)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrNotReady):
			respond.Error(c, http.StatusConflict, "not_ready", "document is not yet indexed for questioning", nil)
		default:
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		}
		return
	}
	respond.Accepted(c, q)
}

func (h *Handler) get(c *gin.Context) {
	questionID := c.Param("id")
	c.Set("questionId", questionID)

	q, err := h.Svc.Get(c.Request.Context(), questionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "question not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch question", nil)
		}
		return
	}
	respond.OK(c, q)
}

// stream answers a pending question over server-sent events. A client
// disconnect cancels the request context, which the service observes as
// a cancellation.
func (h *Handler) stream(c *gin.Context) {
	questionID := c.Param("id")
	c.Set("questionId", questionID)

	if _, err := h.Svc.Get(c.Request.Context(), questionID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "question not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch question", nil)
		}
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	flusher, _ := c.Writer.(http.Flusher)
	err := h.Svc.Stream(c.Request.Context(), questionID, func(event Event) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := c.Writer.WriteString("event: " + event.Type + "\ndata: " + string(payload) + "\n\n"); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		telemetry.Warn("question.stream_aborted", map[string]any{
			"question_id": questionID,
			"error":       err.Error(),
		})
	}
}
