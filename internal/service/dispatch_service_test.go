package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/backend"
	"github.com/garyjia/po-dashboard/internal/errlog"
	"github.com/garyjia/po-dashboard/internal/models"
)

func newDispatchService(client *mockBackend) (*DispatchService, *mockAuditTrail, *errlog.Aggregator) {
	audit := &mockAuditTrail{}
	agg := errlog.New()
	svc := NewDispatchService(client, audit, agg, zap.NewNop())
	return svc, audit, agg
}

func sendableInvoice() *models.Invoice {
	return &models.Invoice{
		InvoiceID: "INV-1",
		BillTo:    models.Contact{Company: "Acme Corp", Email: "billing@acme.test"},
		Vendor:    models.Contact{Company: "Vendor Inc", Email: "ap@vendor.test"},
		Items: []models.LineItem{
			{Description: "Widgets", Qty: 2, UnitPrice: 5, Total: 10},
		},
		Summary: models.Summary{Total: 10},
	}
}

func TestDispatchService_ResolveRecipient(t *testing.T) {
	svc, _, _ := newDispatchService(&mockBackend{configured: true})

	invoice := sendableInvoice()
	assert.Equal(t, "explicit@x.test", svc.ResolveRecipient(invoice, "explicit@x.test"))
	assert.Equal(t, "billing@acme.test", svc.ResolveRecipient(invoice, "  "))

	invoice.BillTo.Email = ""
	assert.Equal(t, "ap@vendor.test", svc.ResolveRecipient(invoice, ""))

	invoice.Vendor.Email = ""
	invoice.BillTo.Company = "Acme, Inc."
	assert.Equal(t, "acmeinc@example.com", svc.ResolveRecipient(invoice, ""))
}

func TestDispatchService_Send_ValidationOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Invoice)
		wantErr string
	}{
		{
			name: "invalid recipient reported before missing id and items",
			mutate: func(inv *models.Invoice) {
				inv.BillTo.Email = "not-an-email"
				inv.Vendor.Email = ""
				inv.InvoiceID = ""
				inv.Items = nil
			},
			wantErr: "recipient email is invalid",
		},
		{
			name: "missing id reported before empty items",
			mutate: func(inv *models.Invoice) {
				inv.InvoiceID = "   "
				inv.Items = nil
			},
			wantErr: "invoice is missing an identifier",
		},
		{
			name: "empty items reported last",
			mutate: func(inv *models.Invoice) {
				inv.Items = nil
			},
			wantErr: "invoice has no line items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockBackend{configured: true}
			svc, audit, _ := newDispatchService(client)

			invoice := sendableInvoice()
			tt.mutate(invoice)

			result := svc.Send(context.Background(), invoice, "PO-1", "")
			assert.False(t, result.Success)
			assert.Equal(t, tt.wantErr, result.Error)
			assert.Zero(t, client.sendCalls)

			require.Len(t, audit.records, 1)
			assert.Equal(t, models.ActionInvoiceSentFailed, audit.records[0].Action)
		})
	}
}

func TestDispatchService_Send_PayloadProjection(t *testing.T) {
	var payload map[string]any
	client := &mockBackend{
		configured: true,
		sendInvoiceFunc: func(ctx context.Context, p map[string]any) (map[string]any, error) {
			payload = p
			return map[string]any{"success": true}, nil
		},
	}
	svc, audit, _ := newDispatchService(client)

	invoice := sendableInvoice()
	invoice.Items = append(invoice.Items, models.LineItem{Description: "Bolts", Qty: 1.5, UnitPrice: 0.25})

	result := svc.Send(context.Background(), invoice, "PO-1", "")
	require.True(t, result.Success)
	assert.Equal(t, "Invoice INV-1 sent to billing@acme.test", result.Message)

	require.NotNil(t, payload)
	assert.Equal(t, "PO-1", payload["po_number"])
	assert.Equal(t, "INV-1", payload["invoice_id"])
	assert.Equal(t, "billing@acme.test", payload["recipient"])
	assert.Equal(t, "Acme Corp", payload["bill_to_company"])
	assert.Equal(t, "Vendor Inc", payload["vendor_company"])
	assert.Equal(t, 10.0, payload["total"])
	assert.Equal(t, []string{
		"Widgets (Qty: 2, Unit Price: $5.00)",
		"Bolts (Qty: 1.5, Unit Price: $0.25)",
	}, payload["items"])

	require.Len(t, audit.records, 1)
	record := audit.records[0]
	assert.Equal(t, models.ActionInvoiceSentSuccess, record.Action)
	assert.True(t, record.Approved)
	assert.Equal(t, "INV-1", record.Details["invoice_id"])
	assert.Equal(t, "billing@acme.test", record.Details["recipient"])
}

func TestDispatchService_Send_RequiresSuccessFlag(t *testing.T) {
	tests := []struct {
		name string
		resp map[string]any
	}{
		{"missing flag", map[string]any{"status": "ok"}},
		{"false flag", map[string]any{"success": false}},
		{"string flag", map[string]any{"success": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockBackend{
				configured: true,
				sendInvoiceFunc: func(ctx context.Context, p map[string]any) (map[string]any, error) {
					return tt.resp, nil
				},
			}
			svc, _, agg := newDispatchService(client)

			result := svc.Send(context.Background(), sendableInvoice(), "PO-1", "")
			assert.False(t, result.Success)
			assert.Equal(t, "invoice dispatch was not confirmed", result.Error)
			assert.Equal(t, tt.resp, result.Details)
			assert.Len(t, agg.Errors("PO-1"), 1)
		})
	}
}

func TestDispatchService_Send_StatusError(t *testing.T) {
	client := &mockBackend{
		configured: true,
		sendInvoiceFunc: func(ctx context.Context, p map[string]any) (map[string]any, error) {
			return nil, &backend.StatusError{StatusCode: 502, Message: "mail relay refused"}
		},
	}
	svc, audit, _ := newDispatchService(client)

	result := svc.Send(context.Background(), sendableInvoice(), "PO-1", "")
	assert.False(t, result.Success)
	assert.Equal(t, "mail relay refused", result.Error)
	require.Len(t, audit.records, 1)
	assert.Equal(t, "mail relay refused", audit.records[0].Details["error"])
}
