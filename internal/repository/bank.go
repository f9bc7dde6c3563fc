package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
)

type BankTransactionRepository interface {
	// BulkInsert stores imported statement rows and returns how many were written.
	BulkInsert(ctx context.Context, companyID uuid.UUID, txs []*entity.BankTransaction) (int, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.BankTransaction, error)
	ListUnmatched(ctx context.Context, companyID uuid.UUID) ([]*entity.BankTransaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BankTransaction, error)
	LinkInvoice(ctx context.Context, txID, invoiceID uuid.UUID) error
}

type bankTxRepo struct {
	db     DB
	logger *slog.Logger
}

func NewBankTransactionRepository(db DB, logger *slog.Logger) BankTransactionRepository {
	return &bankTxRepo{db: db, logger: logger}
}

const bankTxColumns = `id, company_id, tx_date, label, amount, currency_code, invoice_id, imported_at`

func (r *bankTxRepo) BulkInsert(ctx context.Context, companyID uuid.UUID, txs []*entity.BankTransaction) (int, error) {
	now := time.Now().UTC()
	inserted := 0
	for _, tx := range txs {
		_, err := r.db.Exec(ctx,
			`INSERT INTO bank_transactions (company_id, tx_date, label, amount, currency_code, imported_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			companyID, tx.TxDate, tx.Label, tx.Amount, tx.CurrencyCode, now)
		if err != nil {
			r.logger.Error("bank transaction insert failed",
				"company_id", companyID, "label", tx.Label, "inserted", inserted, "error", err)
			return inserted, err
		}
		inserted++
	}
	r.logger.Info("bank transactions imported", "company_id", companyID, "count", inserted)
	return inserted, nil
}

func (r *bankTxRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.BankTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bankTxColumns+` FROM bank_transactions WHERE company_id = $1 ORDER BY tx_date`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBankTxs(rows)
}

func (r *bankTxRepo) ListUnmatched(ctx context.Context, companyID uuid.UUID) ([]*entity.BankTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bankTxColumns+` FROM bank_transactions
		 WHERE company_id = $1 AND invoice_id IS NULL ORDER BY tx_date`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBankTxs(rows)
}

func (r *bankTxRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.BankTransaction, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+bankTxColumns+` FROM bank_transactions WHERE id = $1`, id)
	var t entity.BankTransaction
	err := row.Scan(&t.ID, &t.CompanyID, &t.TxDate, &t.Label, &t.Amount, &t.CurrencyCode, &t.InvoiceID, &t.ImportedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *bankTxRepo) LinkInvoice(ctx context.Context, txID, invoiceID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE bank_transactions SET invoice_id = $2 WHERE id = $1`, txID, invoiceID)
	if err != nil {
		r.logger.Error("bank transaction link failed", "tx_id", txID, "invoice_id", invoiceID, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	r.logger.Info("bank transaction matched", "tx_id", txID, "invoice_id", invoiceID)
	return nil
}

func collectBankTxs(rows pgx.Rows) ([]*entity.BankTransaction, error) {
	var out []*entity.BankTransaction
	for rows.Next() {
		var t entity.BankTransaction
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.TxDate, &t.Label, &t.Amount, &t.CurrencyCode, &t.InvoiceID, &t.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
