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

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByCompanyAndHash(ctx context.Context, companyID uuid.UUID, hash []byte) (*entity.Document, error)
	Create(ctx context.Context, companyID uuid.UUID, filename, ext string, size int, hash []byte, storagePath string, uploadedAt time.Time) (*entity.Document, error)
	// UpsertByHash returns the existing document when the same content was
	// already uploaded for the company. The bool reports whether it existed.
	UpsertByHash(ctx context.Context, companyID uuid.UUID, filename, ext string, size int, hash []byte, storagePath string, uploadedAt time.Time) (*entity.Document, bool, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.Document, error)
}

type documentRepo struct {
	db     DB
	logger *slog.Logger
}

func NewDocumentRepository(db DB, logger *slog.Logger) DocumentRepository {
	return &documentRepo{db: db, logger: logger}
}

const documentColumns = `id, company_id, filename, file_ext, file_size, content_hash, storage_path, uploaded_at`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(&d.ID, &d.CompanyID, &d.Filename, &d.FileExt, &d.FileSize, &d.ContentHash, &d.StoragePath, &d.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (r *documentRepo) GetByCompanyAndHash(ctx context.Context, companyID uuid.UUID, hash []byte) (*entity.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE company_id = $1 AND content_hash = $2`,
		companyID, hash)
	return scanDocument(row)
}

func (r *documentRepo) Create(ctx context.Context, companyID uuid.UUID, filename, ext string, size int, hash []byte, storagePath string, uploadedAt time.Time) (*entity.Document, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO documents (company_id, filename, file_ext, file_size, content_hash, storage_path, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+documentColumns,
		companyID, filename, ext, size, hash, storagePath, uploadedAt)
	d, err := scanDocument(row)
	if err != nil {
		r.logger.Error("failed to create document", "company_id", companyID, "filename", filename, "error", err)
		return nil, err
	}
	return d, nil
}

func (r *documentRepo) UpsertByHash(ctx context.Context, companyID uuid.UUID, filename, ext string, size int, hash []byte, storagePath string, uploadedAt time.Time) (*entity.Document, bool, error) {
	if existing, err := r.GetByCompanyAndHash(ctx, companyID, hash); err == nil {
		r.logger.Info("document already uploaded", "company_id", companyID, "document_id", existing.ID, "filename", filename)
		return existing, true, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	d, err := r.Create(ctx, companyID, filename, ext, size, hash, storagePath, uploadedAt)
	if err != nil {
		return nil, false, err
	}
	return d, false, nil
}

func (r *documentRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE company_id = $1 ORDER BY uploaded_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		var d entity.Document
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Filename, &d.FileExt, &d.FileSize, &d.ContentHash, &d.StoragePath, &d.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
