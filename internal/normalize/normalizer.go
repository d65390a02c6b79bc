// Package normalize reconciles the backend's weakly-typed invoice payloads
// into the canonical Invoice representation. The upstream API is known to
// vary field names between snake_case and camelCase, to sometimes nest the
// invoice under a wrapper key, and to omit fields freely; everything here
// degrades to a documented default instead of failing, with one exception:
// an invoice whose identifier cannot be resolved or synthesized is rejected.
package normalize

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/po-dashboard/internal/models"
)

// ErrMissingIdentifier is returned when no identifier key resolves and no
// PO number is available to synthesize one.
var ErrMissingIdentifier = errors.New("invoice identifier could not be resolved")

// wrapperKeys is the ordered set of envelope keys tried before falling back
// to the payload itself. First key holding a non-null object wins.
var wrapperKeys = []string{"data", "invoice", "result", "response"}

// idKeys is the ordered set of identifier keys. First non-empty value wins.
var idKeys = []string{"invoice_id", "invoiceId", "id", "invoice_number"}

// Contact placeholders: the canonical form never has missing contact fields.
const (
	defaultCompany = "Unknown Company"
	defaultContact = "Unknown Contact"
	defaultAddress = "Unknown Address"
	defaultPhone   = "Unknown Phone"
)

const dateLayout = "2006-01-02"

// Invoice turns an arbitrary decoded JSON payload into a canonical Invoice.
// poHint, when non-empty, is used to synthesize an identifier if the payload
// carries none. The returned invoice satisfies the totality contract: no
// field is ever left unset.
func Invoice(raw any, poHint string) (*models.Invoice, error) {
	obj := unwrap(asObject(raw))

	id := resolveID(obj)
	if id == "" {
		poHint = strings.TrimSpace(poHint)
		if poHint == "" {
			return nil, ErrMissingIdentifier
		}
		id = FallbackID(poHint)
	}

	now := time.Now()
	inv := &models.Invoice{
		InvoiceID:      id,
		InvoiceDate:    stringField(obj, now.Format(dateLayout), "invoice_date", "invoiceDate"),
		DueDate:        stringField(obj, now.AddDate(0, 0, 30).Format(dateLayout), "due_date", "dueDate"),
		PaymentTerms:   stringField(obj, "Net 30", "payment_terms", "paymentTerms"),
		ShippingMethod: stringField(obj, "Standard", "shipping_method", "shippingMethod"),
		BillTo:         contactField(obj, "bill_to", "billTo"),
		Vendor:         contactField(obj, "vendor"),
		Items:          itemsField(obj),
		Summary:        summaryField(obj),
		Notes:          stringField(obj, "", "notes"),
		PaymentStatus:  stringField(obj, "Pending", "payment_status", "paymentStatus"),
	}
	return inv, nil
}

// asObject narrows a decoded JSON value to an object, or nil.
func asObject(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}

// unwrap peels one wrapper envelope off the payload. The first wrapper key
// whose value is a non-null object is used; otherwise the payload itself.
func unwrap(obj map[string]any) map[string]any {
	for _, key := range wrapperKeys {
		if inner := asObject(obj[key]); inner != nil {
			return inner
		}
	}
	return obj
}

// resolveID walks the identifier key candidates in priority order and
// returns the first non-empty value, or "".
func resolveID(obj map[string]any) string {
	for _, key := range idKeys {
		if s := scalarString(obj[key]); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders a string or numeric JSON scalar as a trimmed string.
// Upstream occasionally sends numeric identifiers.
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == 0 {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return ""
}

// stringField tries each key in order and returns the first non-empty
// trimmed string value, else the default.
func stringField(obj map[string]any, def string, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return def
}

// numberField tries each key in order, coercing numbers and numeric strings.
// Missing or non-numeric values yield the default.
func numberField(obj map[string]any, def float64, keys ...string) float64 {
	for _, key := range keys {
		switch val := obj[key].(type) {
		case float64:
			return val
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return n
			}
		}
	}
	return def
}

// contactField resolves a contact block under the given keys, defaulting
// every field so downstream code never sees an absent contact.
func contactField(obj map[string]any, keys ...string) models.Contact {
	var block map[string]any
	for _, key := range keys {
		if inner := asObject(obj[key]); inner != nil {
			block = inner
			break
		}
	}
	if block == nil {
		block = map[string]any{}
	}
	return models.Contact{
		Company: stringField(block, defaultCompany, "company", "company_name", "companyName"),
		Contact: stringField(block, defaultContact, "contact", "contact_name", "contactName"),
		Address: stringField(block, defaultAddress, "address"),
		Phone:   stringField(block, defaultPhone, "phone"),
		Email:   stringField(block, "", "email"),
	}
}

// itemsField coerces the items sequence. Anything that is not an array
// becomes an empty sequence; entries that are not objects are skipped.
func itemsField(obj map[string]any) []models.LineItem {
	raw, ok := obj["items"].([]any)
	if !ok {
		return []models.LineItem{}
	}
	items := make([]models.LineItem, 0, len(raw))
	for _, entry := range raw {
		block := asObject(entry)
		if block == nil {
			continue
		}
		items = append(items, models.LineItem{
			Description: stringField(block, "", "description"),
			Qty:         numberField(block, 1, "qty", "quantity"),
			Unit:        stringField(block, "", "unit"),
			UnitPrice:   numberField(block, 0, "unit_price", "unitPrice"),
			Total:       numberField(block, 0, "total"),
		})
	}
	return items
}

// summaryField resolves the totals block with zero defaults throughout.
func summaryField(obj map[string]any) models.Summary {
	block := asObject(obj["summary"])
	if block == nil {
		block = map[string]any{}
	}
	return models.Summary{
		Subtotal: numberField(block, 0, "subtotal", "sub_total", "subTotal"),
		Discount: numberField(block, 0, "discount"),
		Freight:  numberField(block, 0, "freight"),
		Tax:      numberField(block, 0, "tax"),
		Total:    numberField(block, 0, "total", "grand_total", "grandTotal"),
	}
}
