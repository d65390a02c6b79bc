// Package backend is the typed HTTP client for the purchase-order backend
// API. The backend is treated as an opaque service: responses come back as
// decoded JSON trees and are narrowed into typed values by the normalizer,
// never here.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/models"
)

// Config holds backend API client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the purchase-order backend API. A client with an empty base
// URL is valid to construct; every call on it fails with ErrNotConfigured
// so each operation can surface the configuration error on its own terms.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend API client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Configured reports whether a base URL is set. The reminder flow checks
// configuration before validating input, so this is exposed separately.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// GetInvoiceByPO fetches the stored invoice for a purchase order.
// Returns ErrNotFound on 404.
func (c *Client) GetInvoiceByPO(ctx context.Context, poNumber string) (any, error) {
	status, data, err := c.roundTrip(ctx, http.MethodGet, "/invoices/by-po/"+url.PathEscape(poNumber), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{StatusCode: status, Message: extractMessage(data, status)}
	}
	return decode(data)
}

// SaveInvoice persists a generated invoice to the backend store, stamping
// the purchase order number and creation timestamps.
func (c *Client) SaveInvoice(ctx context.Context, invoice *models.Invoice, poNumber string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	payload := map[string]any{
		"po_number":  poNumber,
		"invoice":    invoice,
		"created_at": now,
		"updated_at": now,
	}
	status, data, err := c.roundTrip(ctx, http.MethodPost, "/invoices", payload)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{StatusCode: status, Message: extractMessage(data, status)}
	}
	return nil
}

// GenerateInvoice asks the AI generation endpoint to produce an invoice for
// a purchase order and returns the decoded response body.
func (c *Client) GenerateInvoice(ctx context.Context, poNumber string) (any, error) {
	status, data, err := c.roundTrip(ctx, http.MethodPost, "/ai/invoice", map[string]any{"po_number": poNumber})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{StatusCode: status, Message: extractMessage(data, status)}
	}
	return decode(data)
}

// UpdateInvoice submits a partial invoice edit and returns the decoded
// response body.
func (c *Client) UpdateInvoice(ctx context.Context, invoiceID string, payload map[string]any) (any, error) {
	status, data, err := c.roundTrip(ctx, http.MethodPut, "/ai/invoice/"+url.PathEscape(invoiceID), payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{StatusCode: status, Message: extractMessage(data, status)}
	}
	return decode(data)
}

// SendReminder triggers a payment reminder for a purchase order and returns
// the decoded response object. The caller interprets the status field.
func (c *Client) SendReminder(ctx context.Context, poNumber string) (map[string]any, error) {
	return c.postObject(ctx, "/ai/send-reminder", map[string]any{"po_number": poNumber})
}

// SendInvoice posts an invoice dispatch payload and returns the decoded
// response object. The caller interprets the success field.
func (c *Client) SendInvoice(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return c.postObject(ctx, "/ai/send-invoice", payload)
}

// LogAction records an audit entry on the backend. Callers treat failures
// as non-fatal.
func (c *Client) LogAction(ctx context.Context, record models.AuditRecord) error {
	status, data, err := c.roundTrip(ctx, http.MethodPost, "/log-action", record)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{StatusCode: status, Message: extractMessage(data, status)}
	}
	return nil
}

// postObject posts a JSON payload and decodes the response into an object.
func (c *Client) postObject(ctx context.Context, path string, payload any) (map[string]any, error) {
	status, data, err := c.roundTrip(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{StatusCode: status, Message: extractMessage(data, status)}
	}
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ParseError{Raw: string(data), Err: fmt.Errorf("expected JSON object, got %T", decoded)}
	}
	return obj, nil
}

// roundTrip performs one HTTP exchange. It returns ErrNotConfigured without
// touching the network when no base URL is set, and wraps dial/read
// failures in ErrTransport so callers can distinguish them from responses
// the backend actually produced.
func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (int, []byte, error) {
	if c.baseURL == "" {
		return 0, nil, ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	c.logger.Debug("Backend request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	return resp.StatusCode, data, nil
}

// decode parses a response body into a JSON tree.
func decode(data []byte) (any, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &ParseError{Raw: string(data), Err: err}
	}
	return decoded, nil
}

// extractMessage pulls a human-readable message out of a JSON error body,
// trying "message" then "error", else falling back to the status text.
func extractMessage(data []byte, status int) string {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err == nil {
		for _, key := range []string{"message", "error"} {
			if msg, ok := body[key].(string); ok && strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return http.StatusText(status)
}
