// Package activity persists the last reminder attempt per purchase order.
// Records are kept for one hour: writes sweep expired rows, and reads
// re-check the window independently, so a stale row that survived a sweep
// is still invisible to callers. Storage failures never propagate; the
// cache degrades to a no-op.
package activity

import (
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Reminder attempt outcomes.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Retention is how long a reminder record stays visible.
const Retention = time.Hour

// Entry is the recorded outcome of the most recent reminder attempt for a
// purchase order. Each new attempt overwrites the previous entry.
type Entry struct {
	PONumber  string    `json:"po_number"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Cache is the SQLite-backed reminder activity store.
type Cache struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewCache creates a reminder activity cache on an open database. The
// reminder_activity table is created by the schema migrations.
func NewCache(db *sql.DB, logger *zap.Logger) *Cache {
	return &Cache{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Record stores the outcome of a reminder attempt, overwriting any previous
// entry for the purchase order, then sweeps expired rows. Failures are
// logged and swallowed.
func (c *Cache) Record(poNumber, status, message string) {
	now := c.now()

	_, err := c.db.Exec(`
		INSERT INTO reminder_activity (po_number, status, message, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(po_number) DO UPDATE SET
			status = excluded.status,
			message = excluded.message,
			recorded_at = excluded.recorded_at
	`, poNumber, status, message, now.UnixMilli())
	if err != nil {
		c.logger.Warn("Failed to record reminder activity",
			zap.String("po_number", poNumber),
			zap.Error(err))
		return
	}

	c.sweep(now)
}

// Get returns the reminder entry for a purchase order if it is still within
// the retention window, else nil. Read errors degrade to nil.
func (c *Cache) Get(poNumber string) *Entry {
	var (
		status     string
		message    string
		recordedAt int64
	)
	err := c.db.QueryRow(`
		SELECT status, message, recorded_at
		FROM reminder_activity
		WHERE po_number = ?
	`, poNumber).Scan(&status, &message, &recordedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn("Failed to read reminder activity",
				zap.String("po_number", poNumber),
				zap.Error(err))
		}
		return nil
	}

	timestamp := time.UnixMilli(recordedAt)
	if c.now().Sub(timestamp) > Retention {
		return nil
	}

	return &Entry{
		PONumber:  poNumber,
		Status:    status,
		Message:   message,
		Timestamp: timestamp,
	}
}

// sweep deletes every entry older than the retention window.
func (c *Cache) sweep(now time.Time) {
	cutoff := now.Add(-Retention).UnixMilli()
	if _, err := c.db.Exec(`DELETE FROM reminder_activity WHERE recorded_at < ?`, cutoff); err != nil {
		c.logger.Warn("Failed to sweep reminder activity", zap.Error(err))
	}
}
