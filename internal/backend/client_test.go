package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second}, zap.NewNop())
	return client, server
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, zap.NewNop())
	assert.False(t, client.Configured())

	_, err := client.GenerateInvoice(context.Background(), "PO-1")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.GetInvoiceByPO(context.Background(), "PO-1")
	assert.ErrorIs(t, err, ErrNotConfigured)

	err = client.LogAction(context.Background(), models.AuditRecord{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_GetInvoiceByPO(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/invoices/by-po/PO-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"invoice_id": "INV-1"}`))
	})

	body, err := client.GetInvoiceByPO(context.Background(), "PO-1")
	require.NoError(t, err)
	obj, ok := body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INV-1", obj["invoice_id"])
}

func TestClient_GetInvoiceByPO_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetInvoiceByPO(context.Background(), "PO-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_GenerateInvoice_PostsPONumber(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ai/invoice", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "PO-9", payload["po_number"])

		w.Write([]byte(`{"data": {"invoice_id": "X1"}}`))
	})

	body, err := client.GenerateInvoice(context.Background(), "PO-9")
	require.NoError(t, err)
	assert.NotNil(t, body)
}

func TestClient_StatusErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusBadRequest, `{"message": "bad PO"}`, "bad PO"},
		{"error field", http.StatusUnprocessableEntity, `{"error": "cannot generate"}`, "cannot generate"},
		{"message preferred over error", http.StatusBadRequest, `{"message": "first", "error": "second"}`, "first"},
		{"non-JSON body falls back to status text", http.StatusInternalServerError, `boom`, "Internal Server Error"},
		{"empty message falls back", http.StatusBadRequest, `{"message": ""}`, "Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.GenerateInvoice(context.Background(), "PO-1")
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantMsg, statusErr.Message)
		})
	}
}

func TestClient_ParseErrorCarriesRawBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})

	_, err := client.GenerateInvoice(context.Background(), "PO-1")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "not json at all", parseErr.Raw)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close() // nothing listening anymore

	client := NewClient(Config{BaseURL: url, Timeout: time.Second}, zap.NewNop())
	_, err := client.GenerateInvoice(context.Background(), "PO-1")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_SaveInvoice_StampsTimestamps(t *testing.T) {
	var payload map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
	})

	err := client.SaveInvoice(context.Background(), &models.Invoice{InvoiceID: "INV-1"}, "PO-1")
	require.NoError(t, err)

	assert.Equal(t, "PO-1", payload["po_number"])
	createdAt, ok := payload["created_at"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, createdAt)
	assert.NoError(t, err)
	assert.Equal(t, payload["created_at"], payload["updated_at"])
}

func TestClient_SendReminder_ReturnsObject(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/send-reminder", r.URL.Path)
		w.Write([]byte(`{"status": "reminder_sent"}`))
	})

	resp, err := client.SendReminder(context.Background(), "PO-1")
	require.NoError(t, err)
	assert.Equal(t, "reminder_sent", resp["status"])
}

func TestClient_SendReminder_NonObjectBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["array"]`))
	})

	_, err := client.SendReminder(context.Background(), "PO-1")
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestClient_UpdateInvoice_Path(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/ai/invoice/INV-7", r.URL.Path)
		w.Write([]byte(`{"invoice_id": "INV-7"}`))
	})

	_, err := client.UpdateInvoice(context.Background(), "INV-7", map[string]any{"notes": "x"})
	assert.NoError(t, err)
}
