package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"bostr/internal/chat_service/service"
	"bostr/internal/models"
	"bostr/internal/rag/schema"
	"bostr/internal/rag/storages/vectorstore"
	"bostr/pkg/logger"
)

// ChatPort is the chat operation the HTTP layer depends on.
type ChatPort interface {
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// IngestPort is the ingestion operation the HTTP layer depends on.
type IngestPort interface {
	LoadDocuments(ctx context.Context, req models.LoadDocumentsRequest, fileName string, fileData []byte) (models.LoadDocumentsResponse, error)
}

// DocumentAdmin groups the collection maintenance operations.
type DocumentAdmin interface {
	SearchByTag(ctx context.Context, tag string, limit int) ([]*schema.Document, error)
	DeleteByTag(ctx context.Context, tag string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// Handler holds the handlers of all API endpoints.
type Handler struct {
	chat           ChatPort
	ingest         IngestPort
	admin          DocumentAdmin
	maxUploadBytes int64
	log            *logger.Logger
}

func NewHandler(chat ChatPort, ingest IngestPort, admin DocumentAdmin, maxUploadBytes int64, log *logger.Logger) *Handler {
	return &Handler{
		chat:           chat,
		ingest:         ingest,
		admin:          admin,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The admin panel sends the user id in a header, the widget in the body.
	if headerUserID := c.GetHeader("user-id"); headerUserID != "" {
		req.UserID = headerUserID
	}

	resp, err := h.chat.Chat(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Question is required"})
			return
		}
		h.logError(c, err, "chat request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoadDocuments handles POST /api/load-documents. URL and text sources come
// as JSON or form fields, PDF and JSON files as a multipart "file" part.
func (h *Handler) LoadDocuments(c *gin.Context) {
	var req models.LoadDocumentsRequest
	var fileName string
	var fileData []byte

	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fileHeader, err := c.FormFile("file")
		if err == nil {
			if fileHeader.Size > h.maxUploadBytes {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the upload size limit"})
				return
			}
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			defer file.Close()
			fileData, err = io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if int64(len(fileData)) > h.maxUploadBytes {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the upload size limit"})
				return
			}
			fileName = fileHeader.Filename
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if msg, ok := checkUploadType(req.Type, fileData); !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": msg})
		return
	}

	resp, err := h.ingest.LoadDocuments(c.Request.Context(), req, fileName, fileData)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrUnsupportedType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, vectorstore.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vector store unavailable"})
		default:
			h.logError(c, err, "ingestion failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// checkUploadType verifies that an uploaded file matches its declared source
// type by sniffing the content, not trusting the file name.
func checkUploadType(sourceType models.SourceType, fileData []byte) (string, bool) {
	if len(fileData) == 0 {
		return "", true
	}
	detected := mimetype.Detect(fileData)
	switch sourceType {
	case models.SourcePDF:
		if !detected.Is("application/pdf") {
			return "uploaded file is not a PDF", false
		}
	case models.SourceJSON:
		if !detected.Is("application/json") && !detected.Is("text/plain") {
			return "uploaded file is not JSON", false
		}
	}
	return "", true
}

// SearchByTag handles GET /api/search-by-tag?tag=...&limit=...
func (h *Handler) SearchByTag(c *gin.Context) {
	tag := c.Query("tag")
	if tag == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag is required"})
		return
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	docs, err := h.admin.SearchByTag(c.Request.Context(), tag, limit)
	if err != nil {
		h.logError(c, err, "tag search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		results = append(results, gin.H{
			"id":       doc.ID,
			"text":     doc.Text,
			"metadata": doc.Metadata,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag, "count": len(results), "documents": results})
}

// DeleteByTag handles DELETE /api/delete-by-tag?tag=...
func (h *Handler) DeleteByTag(c *gin.Context) {
	tag := c.Query("tag")
	if tag == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag is required"})
		return
	}
	if err := h.admin.DeleteByTag(c.Request.Context(), tag); err != nil {
		h.logError(c, err, "tag delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "documents deleted", "tag": tag})
}

// ClearCollection handles DELETE /api/collection.
func (h *Handler) ClearCollection(c *gin.Context) {
	if err := h.admin.DeleteAll(c.Request.Context()); err != nil {
		h.logError(c, err, "collection clear failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "collection cleared"})
}

// Status handles GET /api/status.
func (h *Handler) Status(c *gin.Context) {
	count, err := h.admin.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "documents": count})
}

func (h *Handler) logError(c *gin.Context, err error, message string) {
	h.log.WithRequest(models.RequestInfo{
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		RemoteAddr: c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}).WithError(models.ErrorInfo{
		Message:    err.Error(),
		StatusCode: http.StatusInternalServerError,
	}).Error(message)
}
