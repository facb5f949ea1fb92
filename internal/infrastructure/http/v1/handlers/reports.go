package handlers

import (
	"github.com/gin-gonic/gin"

	"bancaflow/internal/domain/reports"
)

// ReportHandler handles dashboard and reporting endpoints.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Dashboard handles GET /reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dashboard)
}

// KPIs handles GET /reports/kpis
func (h *ReportHandler) KPIs(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	kpis, err := h.service.KPIs(c.Request.Context(), ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, kpis)
}

// Payments handles GET /reports/payments
func (h *ReportHandler) Payments(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	breakdown, err := h.service.SalesByPayment(c.Request.Context(), ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, breakdown)
}

// ReturnAlerts handles GET /reports/return-alerts?days=&includeOverdue=
func (h *ReportHandler) ReturnAlerts(c *gin.Context) {
	ownerID, ok := h.OwnerID(c)
	if !ok {
		return
	}

	days := h.ParseIntQuery(c, "days", 0)
	includeOverdue := h.ParseBoolQuery(c, "includeOverdue", false)

	alerts, err := h.service.ReturnAlerts(c.Request.Context(), ownerID, days, includeOverdue)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, alerts)
}
