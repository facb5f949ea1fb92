package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/domain/catalog"
	"bancaflow/internal/infrastructure/http/v1/dto"
)

// MagazineHandler handles catalog endpoints.
type MagazineHandler struct {
	*BaseHandler
	service *catalog.Service
}

// NewMagazineHandler creates a new magazine handler.
func NewMagazineHandler(base *BaseHandler, service *catalog.Service) *MagazineHandler {
	return &MagazineHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /magazines
func (h *MagazineHandler) List(c *gin.Context) {
	mags, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, mags)
}

// Get handles GET /magazines/:id
func (h *MagazineHandler) Get(c *gin.Context) {
	magazineID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	mag, err := h.service.GetByID(c.Request.Context(), magazineID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, mag)
}

// Search handles GET /magazines/search?q=
func (h *MagazineHandler) Search(c *gin.Context) {
	results, err := h.service.SearchByName(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, results)
}

// GetByBarcode handles GET /magazines/barcode/:barcode
func (h *MagazineHandler) GetByBarcode(c *gin.Context) {
	mag, err := h.service.FindByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, mag)
}

// GetByEdition handles GET /magazines/edition/:edition
func (h *MagazineHandler) GetByEdition(c *gin.Context) {
	edition, err := strconv.Atoi(c.Param("edition"))
	if err != nil {
		h.Error(c, apperror.NewValidation("edition must be a number").WithDetail("param", "edition"))
		return
	}

	mags, err := h.service.FindByEdition(c.Request.Context(), edition)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, mags)
}

// RegisterBarcode handles POST /magazines/:id/barcode
func (h *MagazineHandler) RegisterBarcode(c *gin.Context) {
	magazineID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.RegisterBarcodeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	mag, err := h.service.RegisterBarcode(c.Request.Context(), magazineID, req.Barcode)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, mag)
}

// UploadCover handles POST /magazines/cover
// Multipart form: barcode + image file.
func (h *MagazineHandler) UploadCover(c *gin.Context) {
	barcode := strings.TrimSpace(c.PostForm("barcode"))
	if barcode == "" {
		h.Error(c, apperror.NewValidation("barcode is required").WithDetail("field", "barcode"))
		return
	}

	data, filename, ok := h.ReadUpload(c, "image")
	if !ok {
		return
	}

	contentType := ""
	if fileHeader, err := c.FormFile("image"); err == nil {
		contentType = fileHeader.Header.Get("Content-Type")
	}

	mag, err := h.service.AttachCoverImage(c.Request.Context(), barcode, filename, contentType, data)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, mag)
}
