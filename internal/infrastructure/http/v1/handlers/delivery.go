package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bancaflow/internal/domain/documents/delivery"
)

// DeliveryHandler handles delivery note endpoints.
type DeliveryHandler struct {
	*BaseHandler
	service *delivery.Service
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(base *BaseHandler, service *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Ingest handles POST /deliveries
// Multipart form: file (the scanned PDF).
func (h *DeliveryHandler) Ingest(c *gin.Context) {
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

// List handles GET /deliveries
func (h *DeliveryHandler) List(c *gin.Context) {
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

// Get handles GET /deliveries/:id
func (h *DeliveryHandler) Get(c *gin.Context) {
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
