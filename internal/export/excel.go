// Package export renders canonical invoices as Excel workbooks for the
// dashboard download action.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/po-dashboard/internal/models"
)

const sheetName = "Invoice"

// ExcelWriter renders invoices into .xlsx workbooks.
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates an Excel writer.
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// Render builds a workbook for the invoice and returns it as a buffer
// ready to stream to the browser.
func (w *ExcelWriter) Render(invoice *models.Invoice, poNumber string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	// Header block
	w.setCell(f, "A1", "Invoice")
	w.setCell(f, "B1", invoice.InvoiceID)
	w.setCell(f, "A2", "PO Number")
	w.setCell(f, "B2", poNumber)
	w.setCell(f, "A3", "Invoice Date")
	w.setCell(f, "B3", invoice.InvoiceDate)
	w.setCell(f, "A4", "Due Date")
	w.setCell(f, "B4", invoice.DueDate)
	w.setCell(f, "A5", "Payment Terms")
	w.setCell(f, "B5", invoice.PaymentTerms)
	w.setCell(f, "A6", "Shipping Method")
	w.setCell(f, "B6", invoice.ShippingMethod)
	w.setCell(f, "A7", "Payment Status")
	w.setCell(f, "B7", invoice.PaymentStatus)

	// Parties
	w.setCell(f, "A9", "Bill To")
	w.setCell(f, "B9", invoice.BillTo.Company)
	w.setCell(f, "B10", invoice.BillTo.Contact)
	w.setCell(f, "B11", invoice.BillTo.Address)
	w.setCell(f, "B12", invoice.BillTo.Phone)
	w.setCell(f, "B13", invoice.BillTo.Email)

	w.setCell(f, "D9", "Vendor")
	w.setCell(f, "E9", invoice.Vendor.Company)
	w.setCell(f, "E10", invoice.Vendor.Contact)
	w.setCell(f, "E11", invoice.Vendor.Address)
	w.setCell(f, "E12", invoice.Vendor.Phone)
	w.setCell(f, "E13", invoice.Vendor.Email)

	// Item table
	row := 15
	w.setCell(f, fmt.Sprintf("A%d", row), "Description")
	w.setCell(f, fmt.Sprintf("B%d", row), "Qty")
	w.setCell(f, fmt.Sprintf("C%d", row), "Unit")
	w.setCell(f, fmt.Sprintf("D%d", row), "Unit Price")
	w.setCell(f, fmt.Sprintf("E%d", row), "Total")
	for _, item := range invoice.Items {
		row++
		w.setCell(f, fmt.Sprintf("A%d", row), item.Description)
		w.setCell(f, fmt.Sprintf("B%d", row), item.Qty)
		w.setCell(f, fmt.Sprintf("C%d", row), item.Unit)
		w.setCell(f, fmt.Sprintf("D%d", row), item.UnitPrice)
		w.setCell(f, fmt.Sprintf("E%d", row), item.Total)
	}

	// Summary block
	row += 2
	for _, line := range []struct {
		label string
		value float64
	}{
		{"Subtotal", invoice.Summary.Subtotal},
		{"Discount", invoice.Summary.Discount},
		{"Freight", invoice.Summary.Freight},
		{"Tax", invoice.Summary.Tax},
		{"Total", invoice.Summary.Total},
	} {
		w.setCell(f, fmt.Sprintf("D%d", row), line.label)
		w.setCell(f, fmt.Sprintf("E%d", row), line.value)
		row++
	}

	if invoice.Notes != "" {
		row++
		w.setCell(f, fmt.Sprintf("A%d", row), "Notes")
		w.setCell(f, fmt.Sprintf("B%d", row), invoice.Notes)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("Invoice exported to Excel",
		zap.String("invoice_id", invoice.InvoiceID),
		zap.String("po_number", poNumber),
		zap.Int("items", len(invoice.Items)))
	return buf, nil
}

// setCell sets a cell value, logging failures without aborting the export.
func (w *ExcelWriter) setCell(f *excelize.File, cell string, value any) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		w.logger.Warn("Failed to set cell", zap.String("cell", cell), zap.Error(err))
	}
}
