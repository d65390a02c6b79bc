package models

import "time"

// Audit action verbs recorded against purchase orders.
const (
	ActionReminderSentSuccess = "REMINDER_SENT_SUCCESS"
	ActionReminderSentFailed  = "REMINDER_SENT_FAILED"
	ActionInvoiceSentSuccess  = "INVOICE_SENT_SUCCESS"
	ActionInvoiceSentFailed   = "INVOICE_SENT_FAILED"
)

// AuditActor is the fixed actor recorded for automated dashboard actions.
const AuditActor = "system"

// AuditRecord is one entry in the action audit trail. It is posted to the
// backend best-effort and mirrored into the local store for the dashboard.
type AuditRecord struct {
	ID          string         `json:"id"`
	PONumber    string         `json:"po_number"`
	Action      string         `json:"action"`
	PerformedBy string         `json:"performed_by"`
	Approved    bool           `json:"approved"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
