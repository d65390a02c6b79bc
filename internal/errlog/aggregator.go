// Package errlog keeps a bounded in-memory log of classified dashboard
// errors, keyed by purchase order. It is constructed once at startup and
// injected into the services that report into it.
package errlog

import (
	"strings"
	"sync"
	"time"
)

// Error codes attached to aggregated records.
const (
	CodeUnknown          = "UNKNOWN_ERROR"
	CodeMissingInvoiceID = "MISSING_INVOICE_ID"
	CodeNetworkError     = "NETWORK_ERROR"
	CodeInvalidResponse  = "INVALID_RESPONSE"
	CodeGenerationFailed = "INVOICE_GENERATION_FAILED"
)

const maxRecords = 50

const defaultMessage = "an unknown error occurred"

// Record is one aggregated error entry.
type Record struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	PONumber  string    `json:"po_number,omitempty"`
}

// Aggregator is an append-only, capacity-bounded error buffer. Oldest
// entries are evicted past maxRecords. Safe for interleaved use from
// concurrent handlers.
type Aggregator struct {
	mu      sync.Mutex
	records []Record
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Log appends a record, filling defaults for missing code, message and
// timestamp, and trims the buffer to the most recent entries.
func (a *Aggregator) Log(record Record) {
	if record.Code == "" {
		record.Code = CodeUnknown
	}
	if record.Message == "" {
		record.Message = defaultMessage
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = append(a.records, record)
	if len(a.records) > maxRecords {
		a.records = a.records[len(a.records)-maxRecords:]
	}
}

// Errors returns a snapshot of the buffer, optionally filtered by purchase
// order. Callers receive a copy and cannot mutate aggregator state.
func (a *Aggregator) Errors(poNumber string) []Record {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Record, 0, len(a.records))
	for _, record := range a.records {
		if poNumber != "" && record.PONumber != poNumber {
			continue
		}
		out = append(out, record)
	}
	return out
}

// Clear removes entries for one purchase order, or everything when
// poNumber is empty.
func (a *Aggregator) Clear(poNumber string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if poNumber == "" {
		a.records = nil
		return
	}
	kept := a.records[:0]
	for _, record := range a.records {
		if record.PONumber != poNumber {
			kept = append(kept, record)
		}
	}
	a.records = kept
}

// Classify maps a caught error message onto an error code by substring.
// Messages that match nothing are passed through as a generation failure.
func Classify(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "invoice_id") || strings.Contains(lower, "identifier"):
		return CodeMissingInvoiceID
	case strings.Contains(lower, "network") || strings.Contains(lower, "unreachable") ||
		strings.Contains(lower, "connection") || strings.Contains(lower, "timeout"):
		return CodeNetworkError
	case strings.Contains(lower, "not valid json") || strings.Contains(lower, "response structure") ||
		strings.Contains(lower, "invalid response"):
		return CodeInvalidResponse
	default:
		return CodeGenerationFailed
	}
}
