package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citycare/issue-service/internal/domain"
)

// OfficerRepository handles persistence for officers.
type OfficerRepository interface {
	Create(ctx context.Context, officer *domain.Officer) error
	Update(ctx context.Context, officer *domain.Officer) error
	GetByID(ctx context.Context, id string) (*domain.Officer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Officer, error)
	List(ctx context.Context, filter OfficerFilter) ([]domain.Officer, error)
}

// OfficerFilter defines query params for officer listing.
type OfficerFilter struct {
	Role     *domain.OfficerRole
	WardZone *string
	Active   *bool
	Limit    int
	Offset   int
}

type officerRepository struct {
	pool *pgxpool.Pool
}

// NewOfficerRepository instantiates the repository.
func NewOfficerRepository(pool *pgxpool.Pool) OfficerRepository {
	return &officerRepository{pool: pool}
}

const officerColumns = `id, full_name, email, password_hash, role, ward_zone, active_flag, created_at, updated_at`

func (r *officerRepository) Create(ctx context.Context, officer *domain.Officer) error {
	const query = `
        INSERT INTO officers (full_name, email, password_hash, role, ward_zone, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		officer.FullName,
		officer.Email,
		officer.PasswordHash,
		officer.Role,
		officer.WardZone,
		officer.Active,
	).Scan(&officer.ID, &officer.CreatedAt, &officer.UpdatedAt)
	return mapPgError(err)
}

func (r *officerRepository) Update(ctx context.Context, officer *domain.Officer) error {
	const query = `
        UPDATE officers
        SET full_name=$1, email=$2, password_hash=$3, role=$4, ward_zone=$5, active_flag=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		officer.FullName,
		officer.Email,
		officer.PasswordHash,
		officer.Role,
		officer.WardZone,
		officer.Active,
		officer.ID,
	).Scan(&officer.UpdatedAt)
	return mapPgError(err)
}

func (r *officerRepository) GetByID(ctx context.Context, id string) (*domain.Officer, error) {
	query := `SELECT ` + officerColumns + ` FROM officers WHERE id=$1`
	officer, err := scanOfficer(r.pool.QueryRow(ctx, query, id))
	return officer, mapPgError(err)
}

func (r *officerRepository) GetByEmail(ctx context.Context, email string) (*domain.Officer, error) {
	query := `SELECT ` + officerColumns + ` FROM officers WHERE email=$1`
	officer, err := scanOfficer(r.pool.QueryRow(ctx, query, strings.ToLower(email)))
	return officer, mapPgError(err)
}

func (r *officerRepository) List(ctx context.Context, filter OfficerFilter) ([]domain.Officer, error) {
	query := `SELECT ` + officerColumns + ` FROM officers`
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.WardZone != nil {
		args = append(args, *filter.WardZone)
		clauses = append(clauses, fmt.Sprintf("ward_zone=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 50)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Officer
	for rows.Next() {
		officer, err := scanOfficer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *officer)
	}
	return result, rows.Err()
}

func scanOfficer(row pgx.Row) (*domain.Officer, error) {
	var officer domain.Officer
	if err := row.Scan(
		&officer.ID,
		&officer.FullName,
		&officer.Email,
		&officer.PasswordHash,
		&officer.Role,
		&officer.WardZone,
		&officer.Active,
		&officer.CreatedAt,
		&officer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &officer, nil
}
