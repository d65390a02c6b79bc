package service

import (
	"context"

	"github.com/garyjia/po-dashboard/internal/activity"
	"github.com/garyjia/po-dashboard/internal/backend"
	"github.com/garyjia/po-dashboard/internal/models"
)

// mockBackend implements BackendAPI with overridable behavior per call.
type mockBackend struct {
	configured bool

	getInvoiceByPOFunc  func(ctx context.Context, poNumber string) (any, error)
	saveInvoiceFunc     func(ctx context.Context, invoice *models.Invoice, poNumber string) error
	generateInvoiceFunc func(ctx context.Context, poNumber string) (any, error)
	updateInvoiceFunc   func(ctx context.Context, invoiceID string, payload map[string]any) (any, error)
	sendReminderFunc    func(ctx context.Context, poNumber string) (map[string]any, error)
	sendInvoiceFunc     func(ctx context.Context, payload map[string]any) (map[string]any, error)
	logActionFunc       func(ctx context.Context, record models.AuditRecord) error

	getCalls      int
	saveCalls     int
	generateCalls int
	updateCalls   int
	reminderCalls int
	sendCalls     int
	logCalls      int
}

func (m *mockBackend) Configured() bool { return m.configured }

func (m *mockBackend) GetInvoiceByPO(ctx context.Context, poNumber string) (any, error) {
	m.getCalls++
	if !m.configured {
		return nil, backend.ErrNotConfigured
	}
	if m.getInvoiceByPOFunc != nil {
		return m.getInvoiceByPOFunc(ctx, poNumber)
	}
	return nil, backend.ErrNotFound
}

func (m *mockBackend) SaveInvoice(ctx context.Context, invoice *models.Invoice, poNumber string) error {
	m.saveCalls++
	if !m.configured {
		return backend.ErrNotConfigured
	}
	if m.saveInvoiceFunc != nil {
		return m.saveInvoiceFunc(ctx, invoice, poNumber)
	}
	return nil
}

func (m *mockBackend) GenerateInvoice(ctx context.Context, poNumber string) (any, error) {
	m.generateCalls++
	if !m.configured {
		return nil, backend.ErrNotConfigured
	}
	if m.generateInvoiceFunc != nil {
		return m.generateInvoiceFunc(ctx, poNumber)
	}
	return map[string]any{"invoice_id": "INV-MOCK"}, nil
}

func (m *mockBackend) UpdateInvoice(ctx context.Context, invoiceID string, payload map[string]any) (any, error) {
	m.updateCalls++
	if !m.configured {
		return nil, backend.ErrNotConfigured
	}
	if m.updateInvoiceFunc != nil {
		return m.updateInvoiceFunc(ctx, invoiceID, payload)
	}
	return map[string]any{"invoice_id": invoiceID}, nil
}

func (m *mockBackend) SendReminder(ctx context.Context, poNumber string) (map[string]any, error) {
	m.reminderCalls++
	if !m.configured {
		return nil, backend.ErrNotConfigured
	}
	if m.sendReminderFunc != nil {
		return m.sendReminderFunc(ctx, poNumber)
	}
	return map[string]any{"status": "reminder_sent"}, nil
}

func (m *mockBackend) SendInvoice(ctx context.Context, payload map[string]any) (map[string]any, error) {
	m.sendCalls++
	if !m.configured {
		return nil, backend.ErrNotConfigured
	}
	if m.sendInvoiceFunc != nil {
		return m.sendInvoiceFunc(ctx, payload)
	}
	return map[string]any{"success": true}, nil
}

func (m *mockBackend) LogAction(ctx context.Context, record models.AuditRecord) error {
	m.logCalls++
	if m.logActionFunc != nil {
		return m.logActionFunc(ctx, record)
	}
	return nil
}

// mockAuditTrail captures audit records.
type mockAuditTrail struct {
	records []models.AuditRecord
}

func (m *mockAuditTrail) Record(_ context.Context, record models.AuditRecord) {
	m.records = append(m.records, record)
}

// mockActivity is an in-memory ActivityRecorder.
type mockActivity struct {
	entries map[string]*activity.Entry
}

func newMockActivity() *mockActivity {
	return &mockActivity{entries: make(map[string]*activity.Entry)}
}

func (m *mockActivity) Record(poNumber, status, message string) {
	m.entries[poNumber] = &activity.Entry{PONumber: poNumber, Status: status, Message: message}
}

func (m *mockActivity) Get(poNumber string) *activity.Entry {
	return m.entries[poNumber]
}

// mockNotifier captures notification side-channel messages.
type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(level, message string) {
	m.messages = append(m.messages, level+": "+message)
}
