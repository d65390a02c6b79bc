package models

// Contact identifies one party on an invoice. The normalizer guarantees
// every field carries a value, so consumers never need nil checks.
type Contact struct {
	Company string `json:"company"`
	Contact string `json:"contact"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// LineItem is a single invoice line. Total is taken from the upstream
// response as-is, never recomputed from Qty and UnitPrice.
type LineItem struct {
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Summary holds the invoice totals block.
type Summary struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Freight  float64 `json:"freight"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Invoice is the canonical invoice representation used throughout the
// dashboard. Every value that leaves the normalizer has all fields
// populated; edits replace the whole value rather than mutating it.
type Invoice struct {
	InvoiceID      string     `json:"invoice_id"`
	InvoiceDate    string     `json:"invoice_date"`
	DueDate        string     `json:"due_date"`
	PaymentTerms   string     `json:"payment_terms"`
	ShippingMethod string     `json:"shipping_method"`
	BillTo         Contact    `json:"bill_to"`
	Vendor         Contact    `json:"vendor"`
	Items          []LineItem `json:"items"`
	Summary        Summary    `json:"summary"`
	Notes          string     `json:"notes"`
	PaymentStatus  string     `json:"payment_status"`
}

// Invoice provenance values reported by the generation service.
const (
	SourceAPI       = "api"       // freshly generated by the backend
	SourceDatabase  = "database"  // found in the backend's invoice store
	SourceGenerated = "generated" // local fallback, backend unreachable
)
