package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/backend"
	"github.com/garyjia/po-dashboard/internal/errlog"
	"github.com/garyjia/po-dashboard/internal/models"
	"github.com/garyjia/po-dashboard/internal/normalize"
)

// GenerateResult is the outcome of an invoice generation request. Source
// records how the invoice was obtained when Success is true.
type GenerateResult struct {
	Success bool            `json:"success"`
	Invoice *models.Invoice `json:"invoice,omitempty"`
	Error   string          `json:"error,omitempty"`
	Source  string          `json:"source,omitempty"`
	Details any             `json:"details,omitempty"`
}

// UpdateResult is the outcome of an invoice edit.
type UpdateResult struct {
	Success bool            `json:"success"`
	Invoice *models.Invoice `json:"invoice,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// InvoiceService orchestrates invoice generation and editing against the
// backend API.
type InvoiceService struct {
	client BackendAPI
	errors *errlog.Aggregator
	logger *zap.Logger
}

// NewInvoiceService creates an invoice service.
func NewInvoiceService(client BackendAPI, errors *errlog.Aggregator, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		client: client,
		errors: errors,
		logger: logger,
	}
}

// Generate produces an invoice for a purchase order. In order it: rejects
// blank PO numbers, checks the backend store for an existing invoice (any
// lookup failure is treated as "not found"), calls the generation endpoint,
// normalizes the response and persists it best-effort. A transport-level
// failure of the generation call yields a local placeholder invoice instead
// of an error, so the dashboard is never blocked by an outage.
func (s *InvoiceService) Generate(ctx context.Context, poNumber string) GenerateResult {
	poNumber = strings.TrimSpace(poNumber)
	if poNumber == "" {
		return s.generateFailure(poNumber, "PO number is required", nil)
	}

	// Existence check. Deliberately swallowed on every failure path: a 404,
	// a transport error or an unexpected status all mean "proceed to
	// generate". This masks backend outages, which matches the dashboard's
	// observed behavior.
	if existing, err := s.client.GetInvoiceByPO(ctx, poNumber); err == nil {
		if invoice, nerr := normalize.Invoice(existing, poNumber); nerr == nil {
			s.logger.Info("Invoice found in backend store",
				zap.String("po_number", poNumber),
				zap.String("invoice_id", invoice.InvoiceID))
			return GenerateResult{Success: true, Invoice: invoice, Source: models.SourceDatabase}
		}
	} else if !errors.Is(err, backend.ErrNotFound) && !errors.Is(err, backend.ErrNotConfigured) {
		s.logger.Debug("Invoice existence check failed, proceeding to generate",
			zap.String("po_number", poNumber),
			zap.Error(err))
	}

	raw, err := s.client.GenerateInvoice(ctx, poNumber)
	if err != nil {
		return s.handleGenerateError(poNumber, err)
	}

	invoice, err := normalize.Invoice(raw, poNumber)
	if err != nil {
		return s.generateFailure(poNumber, "invalid invoice response structure", raw)
	}

	// Best-effort persistence: the generated invoice is returned to the
	// caller even when the save fails.
	if err := s.client.SaveInvoice(ctx, invoice, poNumber); err != nil {
		s.logger.Warn("Failed to persist generated invoice",
			zap.String("po_number", poNumber),
			zap.String("invoice_id", invoice.InvoiceID),
			zap.Error(err))
	}

	s.logger.Info("Invoice generated",
		zap.String("po_number", poNumber),
		zap.String("invoice_id", invoice.InvoiceID))
	return GenerateResult{Success: true, Invoice: invoice, Source: models.SourceAPI}
}

// handleGenerateError maps a generation call failure onto a result. Only
// transport-level failures substitute a fallback invoice; everything the
// backend actually answered is surfaced as a failure.
func (s *InvoiceService) handleGenerateError(poNumber string, err error) GenerateResult {
	switch {
	case errors.Is(err, backend.ErrNotConfigured):
		return s.generateFailure(poNumber, errNotConfigured, nil)

	case errors.Is(err, backend.ErrTransport):
		s.logger.Warn("Generation backend unreachable, returning fallback invoice",
			zap.String("po_number", poNumber),
			zap.Error(err))
		s.errors.Log(errlog.Record{
			Code:     errlog.CodeNetworkError,
			Message:  err.Error(),
			PONumber: poNumber,
		})
		return GenerateResult{
			Success: true,
			Invoice: normalize.FallbackInvoice(poNumber),
			Source:  models.SourceGenerated,
		}
	}

	var parseErr *backend.ParseError
	if errors.As(err, &parseErr) {
		return s.generateFailure(poNumber, "generation response is not valid JSON", parseErr.Raw)
	}

	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return s.generateFailure(poNumber, statusErr.Message, nil)
	}

	return s.generateFailure(poNumber, err.Error(), nil)
}

// generateFailure records the failure in the aggregator and builds the
// failed result.
func (s *InvoiceService) generateFailure(poNumber, message string, details any) GenerateResult {
	s.logger.Error("Invoice generation failed",
		zap.String("po_number", poNumber),
		zap.String("error", message))
	s.errors.Log(errlog.Record{
		Code:     errlog.Classify(message),
		Message:  message,
		Details:  details,
		PONumber: poNumber,
	})
	return GenerateResult{Error: message, Details: details}
}

// Update submits a partial invoice edit keyed by invoice_id and returns the
// normalized invoice the backend answered with.
func (s *InvoiceService) Update(ctx context.Context, payload map[string]any) UpdateResult {
	invoiceID, _ := payload["invoice_id"].(string)
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return UpdateResult{Error: "invoice_id is required"}
	}

	raw, err := s.client.UpdateInvoice(ctx, invoiceID, payload)
	if err != nil {
		message := err.Error()
		if errors.Is(err, backend.ErrNotConfigured) {
			message = errNotConfigured
		}
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			message = statusErr.Message
		}
		s.logger.Error("Invoice update failed",
			zap.String("invoice_id", invoiceID),
			zap.String("error", message))
		return UpdateResult{Error: message}
	}

	invoice, err := normalize.Invoice(raw, "")
	if err != nil {
		return UpdateResult{Error: "invalid response structure from update endpoint"}
	}

	s.logger.Info("Invoice updated", zap.String("invoice_id", invoice.InvoiceID))
	return UpdateResult{Success: true, Invoice: invoice}
}
