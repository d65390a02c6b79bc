package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/models"
)

// AuditLogger records dashboard actions. Every record is posted to the
// backend audit trail and mirrored into the local store; both writes are
// best-effort. A failed backend post is surfaced through the notifier but
// never fails the action that triggered it.
type AuditLogger struct {
	client   BackendAPI
	store    *AuditStore
	notifier Notifier
	logger   *zap.Logger
}

// NewAuditLogger creates an audit logger. store and notifier may be nil.
func NewAuditLogger(client BackendAPI, store *AuditStore, notifier Notifier, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		client:   client,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Record fills in the record identity fields and writes it to the backend
// and the local mirror. Errors are swallowed.
func (a *AuditLogger) Record(ctx context.Context, record models.AuditRecord) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.PerformedBy == "" {
		record.PerformedBy = models.AuditActor
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := a.client.LogAction(ctx, record); err != nil {
		a.logger.Warn("Failed to post audit record",
			zap.String("po_number", record.PONumber),
			zap.String("action", record.Action),
			zap.Error(err))
		if a.notifier != nil {
			a.notifier.Notify("warning", "audit trail update failed: "+err.Error())
		}
	}

	if a.store != nil {
		if err := a.store.Insert(record); err != nil {
			a.logger.Warn("Failed to mirror audit record locally",
				zap.String("action", record.Action),
				zap.Error(err))
		}
	}
}

// AuditStore is the local SQLite mirror of the audit trail. It feeds the
// dashboard's recent-activity and metrics views without a backend round
// trip.
type AuditStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditStore creates an audit store on an open database. The audit_log
// table is created by the schema migrations.
func NewAuditStore(db *sql.DB, logger *zap.Logger) *AuditStore {
	return &AuditStore{
		db:     db,
		logger: logger,
	}
}

// Insert writes one audit record.
func (s *AuditStore) Insert(record models.AuditRecord) error {
	details, err := json.Marshal(record.Details)
	if err != nil {
		details = []byte("{}")
	}
	_, err = s.db.Exec(`
		INSERT INTO audit_log (id, po_number, action, performed_by, approved, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.PONumber, record.Action, record.PerformedBy, record.Approved,
		string(details), record.CreatedAt.UnixMilli())
	return err
}

// Recent returns the newest records, most recent first.
func (s *AuditStore) Recent(limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, po_number, action, performed_by, approved, details, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AuditRecord
	for rows.Next() {
		var (
			record    models.AuditRecord
			details   string
			createdAt int64
		)
		if err := rows.Scan(&record.ID, &record.PONumber, &record.Action,
			&record.PerformedBy, &record.Approved, &details, &createdAt); err != nil {
			return nil, err
		}
		record.CreatedAt = time.UnixMilli(createdAt)
		if details != "" && details != "null" {
			_ = json.Unmarshal([]byte(details), &record.Details)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// CountByAction returns the number of records per action verb.
func (s *AuditStore) CountByAction() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT action, COUNT(*) FROM audit_log GROUP BY action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			action string
			count  int
		)
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		counts[action] = count
	}
	return counts, rows.Err()
}
