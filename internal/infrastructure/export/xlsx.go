// Package export renders invoice lists as spreadsheets.
package export

import (
	"context"
	"fmt"

	invoiceapp "github.com/smartinvoice/backend/internal/application/invoice"
	"github.com/smartinvoice/backend/internal/domain/invoice"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Ensure XLSXExporter implements Exporter
var _ invoiceapp.Exporter = (*XLSXExporter)(nil)

const sheetName = "Invoices"

var headers = []string{
	"Number",
	"Invoice Date",
	"Due Date",
	"Client",
	"Status",
	"Currency",
	"Subtotal",
	"Tax",
	"Total",
	"Paid",
	"Balance",
}

// XLSXExporter writes one row per invoice into an Excel workbook
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new XLSXExporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XLSXExporter{logger: logger}
}

// ContentType returns the workbook MIME type
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension returns "xlsx"
func (e *XLSXExporter) FileExtension() string {
	return "xlsx"
}

// Export renders the invoices in the given order
func (e *XLSXExporter) Export(ctx context.Context, invoices []invoice.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	// rename the default sheet so the workbook has exactly one
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheetName, 1, 1, bold)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	for i := range invoices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inv := &invoices[i]
		row := i + 2
		values := []any{
			inv.Number,
			inv.InvoiceDate.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			inv.ClientName,
			string(inv.Status),
			inv.Currency,
			inv.Subtotal.InexactFloat64(),
			inv.TaxTotal.InexactFloat64(),
			inv.Total.InexactFloat64(),
			inv.AmountPaid.InexactFloat64(),
			inv.Balance().InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
		first, _ := excelize.CoordinatesToCellName(7, row)
		last, _ := excelize.CoordinatesToCellName(len(values), row)
		_ = f.SetCellStyle(sheetName, first, last, money)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "C", 13)
	_ = f.SetColWidth(sheetName, "D", "D", 30)
	_ = f.SetColWidth(sheetName, "E", "F", 10)
	_ = f.SetColWidth(sheetName, "G", "K", 13)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	e.logger.Debug("invoices exported", zap.Int("rows", len(invoices)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
