package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
)

type VATDeclarationRepository interface {
	Create(ctx context.Context, d *entity.VATDeclaration) (*entity.VATDeclaration, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.VATDeclaration, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.VATDeclaration, error)
	// Submit transitions a draft to SUBMITTED; submitting twice is an error.
	Submit(ctx context.Context, id uuid.UUID, at time.Time) (*entity.VATDeclaration, error)
}

type vatDeclRepo struct {
	db     DB
	logger *slog.Logger
}

func NewVATDeclarationRepository(db DB, logger *slog.Logger) VATDeclarationRepository {
	return &vatDeclRepo{db: db, logger: logger}
}

const vatDeclColumns = `id, company_id, period, period_start, period_end,
	taxable_base, collected_vat, declared_total, invoice_count, status, submitted_at, created_at`

func scanVATDecl(row pgx.Row) (*entity.VATDeclaration, error) {
	var d entity.VATDeclaration
	err := row.Scan(&d.ID, &d.CompanyID, &d.Period, &d.PeriodStart, &d.PeriodEnd,
		&d.TaxableBase, &d.CollectedVAT, &d.DeclaredTotal, &d.InvoiceCount, &d.Status, &d.SubmittedAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *vatDeclRepo) Create(ctx context.Context, d *entity.VATDeclaration) (*entity.VATDeclaration, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO vat_declarations (company_id, period, period_start, period_end,
		                               taxable_base, collected_vat, declared_total, invoice_count, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+vatDeclColumns,
		d.CompanyID, d.Period, d.PeriodStart, d.PeriodEnd,
		d.TaxableBase, d.CollectedVAT, d.DeclaredTotal, d.InvoiceCount, string(constants.DeclarationStatusDraft))
	out, err := scanVATDecl(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewAppError("DUPLICATE_PERIOD",
				"a declaration already exists for this period", common.ErrDuplicate)
		}
		r.logger.Error("vat declaration create failed", "company_id", d.CompanyID, "error", err)
		return nil, err
	}
	r.logger.Info("vat declaration created",
		"declaration_id", out.ID, "company_id", out.CompanyID,
		"period", out.Period, "collected_vat", out.CollectedVAT)
	return out, nil
}

func (r *vatDeclRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.VATDeclaration, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+vatDeclColumns+` FROM vat_declarations WHERE id = $1`, id)
	return scanVATDecl(row)
}

func (r *vatDeclRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.VATDeclaration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+vatDeclColumns+` FROM vat_declarations WHERE company_id = $1 ORDER BY period_start DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.VATDeclaration
	for rows.Next() {
		var d entity.VATDeclaration
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Period, &d.PeriodStart, &d.PeriodEnd,
			&d.TaxableBase, &d.CollectedVAT, &d.DeclaredTotal, &d.InvoiceCount, &d.Status, &d.SubmittedAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *vatDeclRepo) Submit(ctx context.Context, id uuid.UUID, at time.Time) (*entity.VATDeclaration, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE vat_declarations
		 SET status = $2, submitted_at = $3
		 WHERE id = $1 AND status = $4
		 RETURNING `+vatDeclColumns,
		id, string(constants.DeclarationStatusSubmitted), at, string(constants.DeclarationStatusDraft))
	out, err := scanVATDecl(row)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// either missing or already submitted
			if _, gerr := r.GetByID(ctx, id); gerr == nil {
				return nil, common.NewAppError("ALREADY_SUBMITTED", "declaration is not a draft", common.ErrInvalidInput)
			}
			return nil, common.ErrNotFound
		}
		r.logger.Error("vat declaration submit failed", "declaration_id", id, "error", err)
		return nil, err
	}
	r.logger.Info("vat declaration submitted", "declaration_id", id)
	return out, nil
}
