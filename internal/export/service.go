// Package export produces XLSX and CSV renderings of a company's invoices.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/entity"
	"github.com/besoincompta/compta-backend/internal/repository"
)

// Service is a tiny façade over repositories that renders invoice exports.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) for the given company and date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all invoices for the company.
func (s *Service) ExportInvoicesXLSX(ctx context.Context, companyID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	invoices, err := s.list(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Invoice Number",
		"Supplier",
		"Invoice Date",
		"Due Date",
		"Subtotal",
		"VAT",
		"Total",
		"Currency",
		"Status",
		"Confidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, inv := range invoices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, inv.InvoiceNumber)
		write(2, inv.SupplierName)
		write(3, formatDate(inv.InvoiceDate))
		write(4, formatDate(inv.DueDate))
		write(5, FormatAmount(inv.Subtotal, inv.CurrencyCode))
		write(6, FormatAmount(inv.TaxAmount, inv.CurrencyCode))
		write(7, FormatAmount(inv.Total, inv.CurrencyCode))
		write(8, inv.CurrencyCode)
		write(9, inv.Status)
		write(10, fmt.Sprintf("%.2f", inv.Confidence))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // number
	_ = f.SetColWidth(sheet, "B", "B", 30) // supplier
	_ = f.SetColWidth(sheet, "C", "D", 14) // dates
	_ = f.SetColWidth(sheet, "E", "G", 16) // amounts
	_ = f.SetColWidth(sheet, "I", "I", 18) // status

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"company_id", companyID.String(),
		"rows", len(invoices),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// invoiceCSVRow is the flat CSV projection of one invoice.
type invoiceCSVRow struct {
	InvoiceNumber string `csv:"invoice_number"`
	Supplier      string `csv:"supplier"`
	InvoiceDate   string `csv:"invoice_date"`
	DueDate       string `csv:"due_date"`
	Subtotal      string `csv:"subtotal"`
	TaxAmount     string `csv:"tax_amount"`
	Total         string `csv:"total"`
	Currency      string `csv:"currency"`
	Status        string `csv:"status"`
	Confidence    string `csv:"confidence"`
}

// ExportInvoicesCSV returns the same projection as the XLSX export, as CSV bytes.
func (s *Service) ExportInvoicesCSV(ctx context.Context, companyID uuid.UUID, from, to *time.Time) ([]byte, error) {
	invoices, err := s.list(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]invoiceCSVRow, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, invoiceCSVRow{
			InvoiceNumber: inv.InvoiceNumber,
			Supplier:      inv.SupplierName,
			InvoiceDate:   formatDate(inv.InvoiceDate),
			DueDate:       formatDate(inv.DueDate),
			Subtotal:      fmt.Sprintf("%.2f", inv.Subtotal),
			TaxAmount:     fmt.Sprintf("%.2f", inv.TaxAmount),
			Total:         fmt.Sprintf("%.2f", inv.Total),
			Currency:      inv.CurrencyCode,
			Status:        inv.Status,
			Confidence:    fmt.Sprintf("%.2f", inv.Confidence),
		})
	}

	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	s.logger.Info("export.csv.ok", "company_id", companyID.String(), "rows", len(rows))
	return out, nil
}

func (s *Service) list(ctx context.Context, companyID uuid.UUID, from, to *time.Time) ([]*entity.Invoice, error) {
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	return s.invoices.ListByCompany(ctx, companyID, repository.InvoiceFilter{From: fromDate, To: toDate})
}

// FormatAmount renders a float amount in minor units of the given currency,
// e.g. "€1,200.00". Unknown codes fall back to the default currency.
func FormatAmount(v float64, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		code = constants.DefaultCurrency
		cur = money.GetCurrency(code)
	}
	cents := decimal.NewFromFloat(v).Mul(decimal.New(1, int32(cur.Fraction))).Round(0).IntPart()
	return money.New(cents, code).Display()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
