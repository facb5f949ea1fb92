package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bancaflow/internal/domain/documents/returncall"
)

// ReturnCallHandler handles return call endpoints.
type ReturnCallHandler struct {
	*BaseHandler
	service *returncall.Service
}

// NewReturnCallHandler creates a new return call handler.
func NewReturnCallHandler(base *BaseHandler, service *returncall.Service) *ReturnCallHandler {
	return &ReturnCallHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Ingest handles POST /returns
// Multipart form: file (the scanned PDF).
func (h *ReturnCallHandler) Ingest(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	pdf, _, ok := h.ReadUpload(c, "file")
	if !ok {
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), ownerID, pdf)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List handles GET /returns
func (h *ReturnCallHandler) List(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	docs, err := h.service.List(c.Request.Context(), ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, docs)
}

// Get handles GET /returns/:id
func (h *ReturnCallHandler) Get(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), docID, ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Confirm handles POST /returns/:id/confirm
func (h *ReturnCallHandler) Confirm(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Confirm(c.Request.Context(), docID, ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}
