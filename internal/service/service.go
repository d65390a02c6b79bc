// Package service implements the dashboard's operations against the
// purchase-order backend: invoice generation and editing, invoice and
// reminder dispatch, audit logging and dashboard metrics. Every public
// operation returns a result value with an explicit success flag; errors
// never escape the service boundary.
package service

import (
	"context"

	"github.com/garyjia/po-dashboard/internal/activity"
	"github.com/garyjia/po-dashboard/internal/models"
)

// BackendAPI is the slice of the backend client the services depend on.
type BackendAPI interface {
	Configured() bool
	GetInvoiceByPO(ctx context.Context, poNumber string) (any, error)
	SaveInvoice(ctx context.Context, invoice *models.Invoice, poNumber string) error
	GenerateInvoice(ctx context.Context, poNumber string) (any, error)
	UpdateInvoice(ctx context.Context, invoiceID string, payload map[string]any) (any, error)
	SendReminder(ctx context.Context, poNumber string) (map[string]any, error)
	SendInvoice(ctx context.Context, payload map[string]any) (map[string]any, error)
	LogAction(ctx context.Context, record models.AuditRecord) error
}

// Notifier is the side-effect sink for user-facing notices. The HTTP layer
// wires a real implementation; services only push messages into it.
type Notifier interface {
	Notify(level, message string)
}

// AuditTrail records dashboard actions best-effort.
type AuditTrail interface {
	Record(ctx context.Context, record models.AuditRecord)
}

// ActivityRecorder tracks the last reminder attempt per purchase order.
type ActivityRecorder interface {
	Record(poNumber, status, message string)
	Get(poNumber string) *activity.Entry
}

// errNotConfigured is the operator-facing message for a missing backend
// base URL. Configuration problems are fatal for the call and never retried.
const errNotConfigured = "API configuration error: backend API base URL is not configured"
