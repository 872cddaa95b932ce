package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citycare/issue-service/internal/domain"
)

// CitizenRepository defines persistence access for citizens.
type CitizenRepository interface {
	Create(ctx context.Context, citizen *domain.Citizen) error
	GetByID(ctx context.Context, id string) (*domain.Citizen, error)
	GetByEmail(ctx context.Context, email string) (*domain.Citizen, error)
	AddPoints(ctx context.Context, id string, points int) error
	TopByPoints(ctx context.Context, limit int) ([]domain.Citizen, error)
}

type citizenRepository struct {
	pool *pgxpool.Pool
}

// NewCitizenRepository returns a Postgres-backed implementation.
func NewCitizenRepository(pool *pgxpool.Pool) CitizenRepository {
	return &citizenRepository{pool: pool}
}

const citizenColumns = `id, full_name, email, password_hash, points, created_at, updated_at`

func (r *citizenRepository) Create(ctx context.Context, citizen *domain.Citizen) error {
	const query = `
        INSERT INTO citizens (full_name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, points, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		citizen.FullName,
		citizen.Email,
		citizen.PasswordHash,
	).Scan(&citizen.ID, &citizen.Points, &citizen.CreatedAt, &citizen.UpdatedAt)
	return mapPgError(err)
}

func (r *citizenRepository) GetByID(ctx context.Context, id string) (*domain.Citizen, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE id=$1`
	citizen, err := scanCitizen(r.pool.QueryRow(ctx, query, id))
	return citizen, mapPgError(err)
}

func (r *citizenRepository) GetByEmail(ctx context.Context, email string) (*domain.Citizen, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE email=$1`
	citizen, err := scanCitizen(r.pool.QueryRow(ctx, query, strings.ToLower(email)))
	return citizen, mapPgError(err)
}

func (r *citizenRepository) AddPoints(ctx context.Context, id string, points int) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE citizens SET points = points + $1, updated_at=NOW() WHERE id=$2`, points, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *citizenRepository) TopByPoints(ctx context.Context, limit int) ([]domain.Citizen, error) {
	limit, _ = normalizePage(limit, 0, 10)
	rows, err := r.pool.Query(ctx, `SELECT `+citizenColumns+` FROM citizens ORDER BY points DESC, created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Citizen
	for rows.Next() {
		citizen, err := scanCitizen(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *citizen)
	}
	return result, rows.Err()
}

func scanCitizen(row pgx.Row) (*domain.Citizen, error) {
	var citizen domain.Citizen
	if err := row.Scan(
		&citizen.ID,
		&citizen.FullName,
		&citizen.Email,
		&citizen.PasswordHash,
		&citizen.Points,
		&citizen.CreatedAt,
		&citizen.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &citizen, nil
}
