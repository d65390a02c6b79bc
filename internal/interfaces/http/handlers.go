package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/activity"
	"github.com/garyjia/po-dashboard/internal/errlog"
	"github.com/garyjia/po-dashboard/internal/models"
	"github.com/garyjia/po-dashboard/internal/service"
)

// InvoiceOperations is the invoice service surface the handlers depend on.
type InvoiceOperations interface {
	Generate(ctx context.Context, poNumber string) service.GenerateResult
	Update(ctx context.Context, payload map[string]any) service.UpdateResult
}

// ReminderOperations is the reminder service surface the handlers depend on.
type ReminderOperations interface {
	Send(ctx context.Context, poNumber string) service.SendResult
	CanSend(poNumber string) bool
	Activity(poNumber string) *activity.Entry
}

// DispatchOperations is the invoice dispatch surface the handlers depend on.
type DispatchOperations interface {
	Send(ctx context.Context, invoice *models.Invoice, poNumber, recipient string) service.SendResult
}

// ErrorLog is the error aggregator surface the handlers depend on.
type ErrorLog interface {
	Errors(poNumber string) []errlog.Record
	Clear(poNumber string)
}

// MetricsProvider supplies the dashboard overview block.
type MetricsProvider interface {
	Snapshot() service.Metrics
}

// InvoiceExporter renders invoices for download.
type InvoiceExporter interface {
	Render(invoice *models.Invoice, poNumber string) (*bytes.Buffer, error)
}

// Handlers implements the dashboard HTTP handlers.
type Handlers struct {
	invoices  InvoiceOperations
	reminders ReminderOperations
	dispatch  DispatchOperations
	errors    ErrorLog
	metrics   MetricsProvider
	exporter  InvoiceExporter
	logger    *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	invoices InvoiceOperations,
	reminders ReminderOperations,
	dispatch DispatchOperations,
	errors ErrorLog,
	metrics MetricsProvider,
	exporter InvoiceExporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		invoices:  invoices,
		reminders: reminders,
		dispatch:  dispatch,
		errors:    errors,
		metrics:   metrics,
		exporter:  exporter,
		logger:    logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "po-dashboard",
		"time":    time.Now().Format(time.RFC3339),
	})
}

type poNumberRequest struct {
	PONumber string `json:"po_number"`
}

// GenerateInvoice handles POST /api/invoices/generate. The result always
// carries an explicit success flag; failures are part of the body, not an
// HTTP error.
func (h *Handlers) GenerateInvoice(c *gin.Context) {
	var req poNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, h.invoices.Generate(c.Request.Context(), req.PONumber))
}

// UpdateInvoice handles PUT /api/invoices/:id
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	// The path parameter is authoritative for the edit target.
	payload["invoice_id"] = c.Param("id")
	c.JSON(http.StatusOK, h.invoices.Update(c.Request.Context(), payload))
}

type sendInvoiceRequest struct {
	Invoice   *models.Invoice `json:"invoice"`
	PONumber  string          `json:"po_number"`
	Recipient string          `json:"recipient"`
}

// SendInvoice handles POST /api/invoices/send
func (h *Handlers) SendInvoice(c *gin.Context) {
	var req sendInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Invoice == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, h.dispatch.Send(c.Request.Context(), req.Invoice, req.PONumber, req.Recipient))
}

// ExportInvoice handles POST /api/invoices/export and streams a workbook.
func (h *Handlers) ExportInvoice(c *gin.Context) {
	var req sendInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Invoice == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	buf, err := h.exporter.Render(req.Invoice, req.PONumber)
	if err != nil {
		h.logger.Error("Invoice export failed",
			zap.String("invoice_id", req.Invoice.InvoiceID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "export failed"})
		return
	}

	filename := "invoice-" + req.Invoice.InvoiceID + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// SendReminder handles POST /api/reminders
func (h *Handlers) SendReminder(c *gin.Context) {
	var req poNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, h.reminders.Send(c.Request.Context(), req.PONumber))
}

// CanSendReminder handles GET /api/reminders/:po/can-send
func (h *Handlers) CanSendReminder(c *gin.Context) {
	po := c.Param("po")
	c.JSON(http.StatusOK, gin.H{"po_number": po, "can_send": h.reminders.CanSend(po)})
}

// ReminderActivity handles GET /api/reminders/:po/activity
func (h *Handlers) ReminderActivity(c *gin.Context) {
	entry := h.reminders.Activity(c.Param("po"))
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recent reminder activity"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListErrors handles GET /api/errors?po_number=
func (h *Handlers) ListErrors(c *gin.Context) {
	records := h.errors.Errors(c.Query("po_number"))
	c.JSON(http.StatusOK, gin.H{"errors": records, "count": len(records)})
}

// ClearErrors handles DELETE /api/errors?po_number=
func (h *Handlers) ClearErrors(c *gin.Context) {
	h.errors.Clear(c.Query("po_number"))
	c.Status(http.StatusNoContent)
}

// Metrics handles GET /api/metrics
func (h *Handlers) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
