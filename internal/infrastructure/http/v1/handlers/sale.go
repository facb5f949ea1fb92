package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bancaflow/internal/domain/sales"
	"bancaflow/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale endpoints.
type SaleHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sales.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Record handles POST /sales
func (h *SaleHandler) Record(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	var req dto.RecordSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToRecordInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Record(c.Request.Context(), ownerID, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Recent handles GET /sales/recent?limit=
func (h *SaleHandler) Recent(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 0)

	rows, err := h.service.Recent(c.Request.Context(), ownerID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rows)
}
