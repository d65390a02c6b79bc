package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/activity"
	"github.com/garyjia/po-dashboard/internal/backend"
	"github.com/garyjia/po-dashboard/internal/errlog"
	"github.com/garyjia/po-dashboard/internal/models"
)

// reminderSentStatus is the only response status the dispatch endpoint may
// answer with for a successful send. Anything else, even on HTTP 200, is a
// logical failure.
const reminderSentStatus = "reminder_sent"

// poNumberPattern is the allowed purchase order number shape: one or more
// alphanumerics, hyphens or underscores.
var poNumberPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SendResult is the outcome of a reminder or invoice dispatch.
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ReminderService dispatches payment reminders for purchase orders and
// tracks the last attempt per PO in the activity cache.
type ReminderService struct {
	client   BackendAPI
	audit    AuditTrail
	activity ActivityRecorder
	errors   *errlog.Aggregator
	logger   *zap.Logger
}

// NewReminderService creates a reminder service.
func NewReminderService(client BackendAPI, audit AuditTrail, cache ActivityRecorder,
	errors *errlog.Aggregator, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		client:   client,
		audit:    audit,
		activity: cache,
		errors:   errors,
		logger:   logger,
	}
}

// CanSend reports whether a PO number would pass validation. No network.
func (s *ReminderService) CanSend(poNumber string) bool {
	poNumber = strings.TrimSpace(poNumber)
	return poNumber != "" && poNumberPattern.MatchString(poNumber)
}

// Send dispatches a payment reminder. The configuration check runs before
// input validation here; the invoice flows validate first. The orderings
// differ on purpose and are kept per-operation.
func (s *ReminderService) Send(ctx context.Context, poNumber string) SendResult {
	if !s.client.Configured() {
		return SendResult{Error: errNotConfigured}
	}

	poNumber = strings.TrimSpace(poNumber)
	if poNumber == "" {
		return SendResult{Error: "PO number is required"}
	}
	if !poNumberPattern.MatchString(poNumber) {
		return SendResult{Error: "PO number may only contain letters, digits, hyphens and underscores"}
	}

	resp, err := s.client.SendReminder(ctx, poNumber)
	if err != nil {
		return s.failure(ctx, poNumber, dispatchErrorMessage(err), nil)
	}

	status, _ := resp["status"].(string)
	if status != reminderSentStatus {
		return s.failure(ctx, poNumber, fmt.Sprintf("unexpected reminder status %q", status), resp)
	}

	message := "Reminder sent for PO " + poNumber
	s.logger.Info("Reminder dispatched", zap.String("po_number", poNumber))
	s.activity.Record(poNumber, activity.StatusSent, message)
	s.audit.Record(ctx, models.AuditRecord{
		PONumber: poNumber,
		Action:   models.ActionReminderSentSuccess,
		Approved: true,
	})
	return SendResult{Success: true, Message: message}
}

// Activity returns the cached outcome of the last reminder attempt for a
// purchase order, or nil when none is within the retention window.
func (s *ReminderService) Activity(poNumber string) *activity.Entry {
	return s.activity.Get(strings.TrimSpace(poNumber))
}

// failure records the failed attempt everywhere it is tracked and builds
// the failed result.
func (s *ReminderService) failure(ctx context.Context, poNumber, message string, details any) SendResult {
	s.logger.Error("Reminder dispatch failed",
		zap.String("po_number", poNumber),
		zap.String("error", message))
	s.errors.Log(errlog.Record{
		Code:     errlog.Classify(message),
		Message:  message,
		Details:  details,
		PONumber: poNumber,
	})
	s.activity.Record(poNumber, activity.StatusFailed, message)
	s.audit.Record(ctx, models.AuditRecord{
		PONumber: poNumber,
		Action:   models.ActionReminderSentFailed,
		Approved: false,
		Details:  map[string]any{"error": message},
	})
	return SendResult{Error: message, Details: details}
}

// dispatchErrorMessage renders a backend error for the caller. Shared by
// the reminder and invoice dispatch flows.
func dispatchErrorMessage(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	if errors.Is(err, backend.ErrTransport) {
		return "network error while dispatching: " + err.Error()
	}
	return err.Error()
}
