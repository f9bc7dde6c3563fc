package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
)

type CompanyRepository interface {
	Create(ctx context.Context, name string, taxID *string, defaultCurrency string) (*entity.Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	List(ctx context.Context) ([]*entity.Company, error)
}

type companyRepo struct {
	db     DB
	logger *slog.Logger
}

func NewCompanyRepository(db DB, logger *slog.Logger) CompanyRepository {
	return &companyRepo{db: db, logger: logger}
}

const companyColumns = `id, name, tax_id, default_currency, created_at, updated_at`

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var c entity.Company
	err := row.Scan(&c.ID, &c.Name, &c.TaxID, &c.DefaultCurrency, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *companyRepo) Create(ctx context.Context, name string, taxID *string, defaultCurrency string) (*entity.Company, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO companies (name, tax_id, default_currency)
		 VALUES ($1, $2, $3)
		 RETURNING `+companyColumns,
		name, taxID, defaultCurrency)
	c, err := scanCompany(row)
	if err != nil {
		r.logger.Error("failed to create company", "name", name, "error", err)
		return nil, err
	}
	r.logger.Info("company created", "company_id", c.ID, "name", c.Name)
	return c, nil
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

func (r *companyRepo) List(ctx context.Context) ([]*entity.Company, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Company
	for rows.Next() {
		var c entity.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.TaxID, &c.DefaultCurrency, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
