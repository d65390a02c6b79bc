package normalize

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/garyjia/po-dashboard/internal/models"
)

// FallbackID synthesizes an invoice identifier for a purchase order when the
// backend response carries none. The millisecond timestamp dominates, so
// collisions within a session are overwhelmingly unlikely; no sequence
// counter is kept.
func FallbackID(poNumber string) string {
	return fmt.Sprintf("INV-%s-%d-%03d", poNumber, time.Now().UnixMilli(), rand.Intn(1000))
}

// FallbackInvoice builds a complete placeholder invoice for a purchase order.
// It is used when the generation backend is unreachable, so the dashboard is
// never blocked on a network outage. All fields satisfy the canonical
// invoice contract.
func FallbackInvoice(poNumber string) *models.Invoice {
	now := time.Now()
	return &models.Invoice{
		InvoiceID:      FallbackID(poNumber),
		InvoiceDate:    now.Format(dateLayout),
		DueDate:        now.AddDate(0, 0, 30).Format(dateLayout),
		PaymentTerms:   "Net 30",
		ShippingMethod: "Standard",
		BillTo:         placeholderContact(),
		Vendor:         placeholderContact(),
		Items:          []models.LineItem{},
		Summary:        models.Summary{},
		Notes: fmt.Sprintf(
			"This is a placeholder invoice for PO %s, generated locally because the invoice API was unavailable. Regenerate once the backend is reachable.",
			poNumber),
		PaymentStatus: "Pending",
	}
}

func placeholderContact() models.Contact {
	return models.Contact{
		Company: defaultCompany,
		Contact: defaultContact,
		Address: defaultAddress,
		Phone:   defaultPhone,
	}
}
