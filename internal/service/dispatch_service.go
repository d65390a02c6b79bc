package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/errlog"
	"github.com/garyjia/po-dashboard/internal/models"
)

// emailPattern is the basic local@domain.tld shape required of recipients.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// DispatchService emails an invoice to a recipient through the backend's
// send endpoint.
type DispatchService struct {
	client BackendAPI
	audit  AuditTrail
	errors *errlog.Aggregator
	logger *zap.Logger
}

// NewDispatchService creates an invoice dispatch service.
func NewDispatchService(client BackendAPI, audit AuditTrail, errors *errlog.Aggregator, logger *zap.Logger) *DispatchService {
	return &DispatchService{
		client: client,
		audit:  audit,
		errors: errors,
		logger: logger,
	}
}

// ResolveRecipient picks the dispatch address: the explicit recipient if
// given, then the bill-to email, then the vendor email, then a synthesized
// placeholder derived from the bill-to company name.
func (s *DispatchService) ResolveRecipient(invoice *models.Invoice, recipient string) string {
	if r := strings.TrimSpace(recipient); r != "" {
		return r
	}
	if invoice.BillTo.Email != "" {
		return invoice.BillTo.Email
	}
	if invoice.Vendor.Email != "" {
		return invoice.Vendor.Email
	}
	return sanitizeCompany(invoice.BillTo.Company) + "@example.com"
}

// Send validates the invoice and recipient, projects the invoice into the
// dispatch payload and posts it. The endpoint is a notification trigger,
// not a ledger write, so the payload is deliberately lossy: company names,
// the grand total and items rendered as display strings.
func (s *DispatchService) Send(ctx context.Context, invoice *models.Invoice, poNumber, recipient string) SendResult {
	recipient = s.ResolveRecipient(invoice, recipient)

	// First failing check wins; order matters to callers.
	switch {
	case recipient == "":
		return s.failure(ctx, invoice, poNumber, recipient, "recipient email is required", nil)
	case !emailPattern.MatchString(recipient):
		return s.failure(ctx, invoice, poNumber, recipient, "recipient email is invalid", nil)
	case strings.TrimSpace(invoice.InvoiceID) == "":
		return s.failure(ctx, invoice, poNumber, recipient, "invoice is missing an identifier", nil)
	case math.IsNaN(invoice.Summary.Total) || math.IsInf(invoice.Summary.Total, 0):
		return s.failure(ctx, invoice, poNumber, recipient, "invoice total is not a valid number", nil)
	case len(invoice.Items) == 0:
		return s.failure(ctx, invoice, poNumber, recipient, "invoice has no line items", nil)
	}

	payload := map[string]any{
		"po_number":       poNumber,
		"invoice_id":      invoice.InvoiceID,
		"recipient":       recipient,
		"bill_to_company": invoice.BillTo.Company,
		"vendor_company":  invoice.Vendor.Company,
		"total":           invoice.Summary.Total,
		"items":           renderItems(invoice.Items),
	}

	resp, err := s.client.SendInvoice(ctx, payload)
	if err != nil {
		return s.failure(ctx, invoice, poNumber, recipient, dispatchErrorMessage(err), nil)
	}

	// The endpoint must answer with an explicit success flag; a 200 with
	// anything else is a logical failure.
	if ok, _ := resp["success"].(bool); !ok {
		return s.failure(ctx, invoice, poNumber, recipient, "invoice dispatch was not confirmed", resp)
	}

	message := fmt.Sprintf("Invoice %s sent to %s", invoice.InvoiceID, recipient)
	s.logger.Info("Invoice dispatched",
		zap.String("po_number", poNumber),
		zap.String("invoice_id", invoice.InvoiceID),
		zap.String("recipient", recipient))
	s.audit.Record(ctx, models.AuditRecord{
		PONumber: poNumber,
		Action:   models.ActionInvoiceSentSuccess,
		Approved: true,
		Details: map[string]any{
			"invoice_id": invoice.InvoiceID,
			"recipient":  recipient,
		},
	})
	return SendResult{Success: true, Message: message}
}

func (s *DispatchService) failure(ctx context.Context, invoice *models.Invoice, poNumber, recipient, message string, details any) SendResult {
	s.logger.Error("Invoice dispatch failed",
		zap.String("po_number", poNumber),
		zap.String("error", message))
	s.errors.Log(errlog.Record{
		Code:     errlog.Classify(message),
		Message:  message,
		Details:  details,
		PONumber: poNumber,
	})
	s.audit.Record(ctx, models.AuditRecord{
		PONumber: poNumber,
		Action:   models.ActionInvoiceSentFailed,
		Approved: false,
		Details: map[string]any{
			"invoice_id": invoice.InvoiceID,
			"recipient":  recipient,
			"error":      message,
		},
	})
	return SendResult{Error: message, Details: details}
}

// sanitizeCompany lowercases a company name and strips everything outside
// [a-z0-9] for use as a placeholder mailbox name.
func sanitizeCompany(name string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "")
}

// renderItems formats line items as the human-readable strings the
// dispatch endpoint expects.
func renderItems(items []models.LineItem) []string {
	rendered := make([]string, 0, len(items))
	for _, item := range items {
		qty := strconv.FormatFloat(item.Qty, 'f', -1, 64)
		rendered = append(rendered,
			fmt.Sprintf("%s (Qty: %s, Unit Price: $%.2f)", item.Description, qty, item.UnitPrice))
	}
	return rendered
}
