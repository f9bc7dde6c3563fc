package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
	"github.com/besoincompta/compta-backend/internal/fields"
)

// CreateInvoiceRequest bundles everything the parse stage produced for one document.
type CreateInvoiceRequest struct {
	Document *entity.Document
	JobID    uuid.UUID
	Data     fields.InvoiceData
	Status   string
}

type InvoiceFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

type InvoiceRepository interface {
	// UpsertFromExtraction creates the invoice for a document, or replaces the
	// extracted fields when the document was re-processed.
	UpsertFromExtraction(ctx context.Context, req *CreateInvoiceRequest) (*entity.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID, filter InvoiceFilter) ([]*entity.Invoice, error)
	// ListForPeriod returns validated and reconciled invoices dated inside [start, end].
	ListForPeriod(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*entity.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkReconciled(ctx context.Context, id uuid.UUID) error
}

type invoiceRepo struct {
	db     DB
	logger *slog.Logger
}

func NewInvoiceRepository(db DB, logger *slog.Logger) InvoiceRepository {
	return &invoiceRepo{db: db, logger: logger}
}

const invoiceColumns = `id, company_id, document_id, invoice_number, supplier_name,
	invoice_date, due_date, subtotal, tax_amount, total,
	currency_code, status, confidence, items, created_at, updated_at`

// invoiceDateLayouts covers the formats the extractor captures; day-first
// variants come before year-first since the documents are mostly French.
var invoiceDateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"02/01/06",
}

// ParseInvoiceDate turns an extracted date string into a timestamp.
// Returns nil when the string matches none of the known layouts.
func ParseInvoiceDate(s string) *time.Time {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var v entity.Invoice
	err := row.Scan(&v.ID, &v.CompanyID, &v.DocumentID, &v.InvoiceNumber, &v.SupplierName,
		&v.InvoiceDate, &v.DueDate, &v.Subtotal, &v.TaxAmount, &v.Total,
		&v.CurrencyCode, &v.Status, &v.Confidence, &v.Items, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *invoiceRepo) UpsertFromExtraction(ctx context.Context, req *CreateInvoiceRequest) (*entity.Invoice, error) {
	items, err := json.Marshal(req.Data.Items)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = string(constants.InvoiceStatusPending)
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO invoices (company_id, document_id, invoice_number, supplier_name,
		                       invoice_date, due_date, subtotal, tax_amount, total,
		                       currency_code, status, confidence, items)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (document_id) DO UPDATE SET
		   invoice_number = EXCLUDED.invoice_number,
		   supplier_name  = EXCLUDED.supplier_name,
		   invoice_date   = EXCLUDED.invoice_date,
		   due_date       = EXCLUDED.due_date,
		   subtotal       = EXCLUDED.subtotal,
		   tax_amount     = EXCLUDED.tax_amount,
		   total          = EXCLUDED.total,
		   currency_code  = EXCLUDED.currency_code,
		   status         = EXCLUDED.status,
		   confidence     = EXCLUDED.confidence,
		   items          = EXCLUDED.items,
		   updated_at     = now()
		 RETURNING `+invoiceColumns,
		req.Document.CompanyID, req.Document.ID, req.Data.InvoiceNumber, req.Data.Supplier.Name,
		ParseInvoiceDate(req.Data.Date), ParseInvoiceDate(req.Data.DueDate),
		req.Data.Subtotal, req.Data.TaxAmount, req.Data.Total,
		req.Data.Currency, status, req.Data.Confidence, items)
	inv, err := scanInvoice(row)
	if err != nil {
		r.logger.Error("invoice upsert failed", "document_id", req.Document.ID, "job_id", req.JobID, "error", err)
		return nil, err
	}
	r.logger.Info("invoice upserted",
		"invoice_id", inv.ID, "document_id", req.Document.ID,
		"supplier", inv.SupplierName, "total", inv.Total, "confidence", inv.Confidence)
	return inv, nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

func (r *invoiceRepo) ListByCompany(ctx context.Context, companyID uuid.UUID, filter InvoiceFilter) ([]*entity.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1`
	args := []any{companyID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND status = $2`
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		q += ` AND invoice_date >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		q += ` AND invoice_date <= $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func (r *invoiceRepo) ListForPeriod(ctx context.Context, companyID uuid.UUID, start, end time.Time) ([]*entity.Invoice, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices
		 WHERE company_id = $1 AND status IN ($2, $3)
		   AND invoice_date >= $4 AND invoice_date <= $5
		 ORDER BY invoice_date`,
		companyID, string(constants.InvoiceStatusValidated), string(constants.InvoiceStatusReconciled), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE invoices SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		r.logger.Error("invoice status update failed", "invoice_id", id, "status", status, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) MarkReconciled(ctx context.Context, id uuid.UUID) error {
	return r.UpdateStatus(ctx, id, string(constants.InvoiceStatusReconciled))
}

func collectInvoices(rows pgx.Rows) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for rows.Next() {
		var v entity.Invoice
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.DocumentID, &v.InvoiceNumber, &v.SupplierName,
			&v.InvoiceDate, &v.DueDate, &v.Subtotal, &v.TaxAmount, &v.Total,
			&v.CurrencyCode, &v.Status, &v.Confidence, &v.Items, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
