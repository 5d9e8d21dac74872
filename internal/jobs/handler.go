package jobs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/documents"
	"contract-backend/internal/shared/server/respond"
)

// Handler serves the status boundary.
type Handler struct {
	Tasks Repo
	Docs  documents.Repo
}

// NewHandler constructs a Handler.
func NewHandler(tasks Repo, docs documents.Repo) *Handler {
	return &Handler{Tasks: tasks, Docs: docs}
}

// RegisterRoutes attaches status routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/status", h.documentStatus)
	rg.GET("/tasks/:id", h.task)
}

func (h *Handler) documentStatus(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	doc, err := h.Docs.GetByID(c.Request.Context(), documentID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}

	tasks, err := h.Tasks.LatestByDocument(c.Request.Context(), documentID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch tasks", nil)
		return
	}

	// The newest non-terminal task drives the progress display; with
	// everything settled, the newest task overall does.
	progress := 0
	step := ""
	errorCode := ""
	for _, task := range tasks {
		if task.Status == StatusQueued || task.Status == StatusRunning {
			progress = task.Progress
			step = task.Step
			break
		}
	}
	if step == "" && len(tasks) > 0 {
		progress = tasks[0].Progress
		step = tasks[0].Step
	}
	for _, task := range tasks {
		if task.Status == StatusFailed && errorCode == "" {
			errorCode = task.ErrorCode
		}
	}

	respond.OK(c, gin.H{
		"documentId":         documentID,
		"status":             doc.Status,
		"progressPercentage": progress,
		"currentStep":        step,
		"errorCode":          errorCode,
		"failureReason":      doc.FailureReason,
		"tasks":              tasks,
	})
}

func (h *Handler) task(c *gin.Context) {
	taskID := c.Param("id")

	task, err := h.Tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "task not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch task", nil)
		}
		return
	}
	respond.OK(c, task)
}
