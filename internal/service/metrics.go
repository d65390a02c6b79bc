package service

import (
	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/errlog"
	"github.com/garyjia/po-dashboard/internal/models"
)

// Metrics is the dashboard overview block: dispatch counts from the local
// audit mirror plus aggregated error-code counts.
type Metrics struct {
	RemindersSent   int                  `json:"reminders_sent"`
	RemindersFailed int                  `json:"reminders_failed"`
	InvoicesSent    int                  `json:"invoices_sent"`
	InvoicesFailed  int                  `json:"invoices_failed"`
	ErrorCounts     map[string]int       `json:"error_counts"`
	RecentActions   []models.AuditRecord `json:"recent_actions"`
}

// MetricsService assembles dashboard metrics from local state only; it
// never calls the backend.
type MetricsService struct {
	store  *AuditStore
	errors *errlog.Aggregator
	logger *zap.Logger
}

// NewMetricsService creates a metrics service.
func NewMetricsService(store *AuditStore, errors *errlog.Aggregator, logger *zap.Logger) *MetricsService {
	return &MetricsService{
		store:  store,
		errors: errors,
		logger: logger,
	}
}

// Snapshot builds the current metrics. Audit store failures degrade to
// zero counts rather than failing the dashboard view.
func (s *MetricsService) Snapshot() Metrics {
	metrics := Metrics{ErrorCounts: make(map[string]int)}

	counts, err := s.store.CountByAction()
	if err != nil {
		s.logger.Warn("Failed to count audit actions", zap.Error(err))
	} else {
		metrics.RemindersSent = counts[models.ActionReminderSentSuccess]
		metrics.RemindersFailed = counts[models.ActionReminderSentFailed]
		metrics.InvoicesSent = counts[models.ActionInvoiceSentSuccess]
		metrics.InvoicesFailed = counts[models.ActionInvoiceSentFailed]
	}

	recent, err := s.store.Recent(10)
	if err != nil {
		s.logger.Warn("Failed to load recent audit actions", zap.Error(err))
	} else {
		metrics.RecentActions = recent
	}

	for _, record := range s.errors.Errors("") {
		metrics.ErrorCounts[record.Code]++
	}

	return metrics
}
