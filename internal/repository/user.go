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

type UserRepository interface {
	Create(ctx context.Context, companyID uuid.UUID, email, fullName, role string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.User, error)
}

type userRepo struct {
	db     DB
	logger *slog.Logger
}

func NewUserRepository(db DB, logger *slog.Logger) UserRepository {
	return &userRepo{db: db, logger: logger}
}

const userColumns = `id, company_id, email, full_name, role, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, companyID uuid.UUID, email, fullName, role string) (*entity.User, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (company_id, email, full_name, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		companyID, email, fullName, role)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewAppError("DUPLICATE_EMAIL",
				"a user with this email already exists", common.ErrDuplicate)
		}
		r.logger.Error("failed to create user", "company_id", companyID, "email", email, "error", err)
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *userRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 ORDER BY created_at`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.CompanyID, &u.Email, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
