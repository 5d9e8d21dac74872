package documents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/server/respond"
)

const maxUploadFiles = 10

// Handler wires HTTP handlers to the documents service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at least one file is required", nil)
		return
	}
	if len(files) > maxUploadFiles {
		respond.Error(c, http.StatusBadRequest, "validation_error", "too many files", nil)
		return
	}

	docs := make([]Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read uploaded file", nil)
			return
		}
		doc, err := h.Svc.Upload(c.Request.Context(), fh.Filename, f)
		f.Close()
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store document", nil)
			return
		}
		docs = append(docs, doc)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	respond.Created(c, gin.H{
		"message":     "Files uploaded. Text extraction in progress.",
		"documentIds": ids,
		"documents":   docs,
	})
}

func (h *Handler) get(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	doc, err := h.Svc.Get(c.Request.Context(), documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}
	respond.OK(c, doc)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	docs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	respond.OK(c, gin.H{"documents": docs})
}

func (h *Handler) remove(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	if err := h.Svc.Delete(c.Request.Context(), documentID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": documentID})
}
