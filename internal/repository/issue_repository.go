package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citycare/issue-service/internal/domain"
)

// IssueFilter captures listing parameters.
type IssueFilter struct {
	ReporterID *string
	AssignedTo *string
	WardZone   *string
	Statuses   []domain.IssueStatus
	Categories []domain.IssueCategory
	Severities []domain.IssueSeverity
	SearchTerm *string
	Limit      int
	Offset     int
}

// IssueRepository is the persistence collaborator of the lifecycle engine.
// CompareAndSwap must atomically replace the issue projection and append
// event, or do nothing.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Get(ctx context.Context, id string) (*domain.Issue, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Issue, error)
	CompareAndSwap(ctx context.Context, expectedRevision int64, next *domain.Issue, event domain.IssueEvent) error
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ListEvents(ctx context.Context, issueID string, limit, offset int) ([]domain.IssueEvent, error)
	CountByStatus(ctx context.Context) (map[domain.IssueStatus]int, error)
	CountByCategory(ctx context.Context) (map[domain.IssueCategory]int, error)
}

type issueRepository struct {
	pool   *pgxpool.Pool
	events *issueEventStore
}

// NewIssueRepository instantiates the Postgres repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool, events: &issueEventStore{}}
}

const issueColumns = `id, ticket_id, title, description, category, severity, status, assigned_to, reporter_id,
               anonymous, location, ward_zone, priority_score, rejection_reason, revision, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (id, ticket_id, title, description, category, severity, status, assigned_to, reporter_id,
                            anonymous, location, ward_zone, priority_score, rejection_reason, revision, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.TicketID,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Severity,
		issue.Status,
		issue.AssignedTo,
		issue.ReporterID,
		issue.Anonymous,
		issue.Location,
		issue.WardZone,
		issue.PriorityScore,
		issue.RejectionReason,
		issue.Revision,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	return mapPgError(err)
}

func (r *issueRepository) Get(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	return r.fetchWithHistory(ctx, query, id)
}

func (r *issueRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE ticket_id=$1`
	return r.fetchWithHistory(ctx, query, ticketID)
}

// fetchWithHistory reads the row and its events in one repeatable-read
// transaction so the projection and history come from the same revision.
func (r *issueRepository) fetchWithHistory(ctx context.Context, query string, arg any) (*domain.Issue, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	issue, err := scanIssue(tx.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapPgError(err)
	}
	history, err := r.events.listByIssue(ctx, tx, issue.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	issue.History = history
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return issue, nil
}

func (r *issueRepository) CompareAndSwap(ctx context.Context, expectedRevision int64, next *domain.Issue, event domain.IssueEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE issues SET status=$1, assigned_to=$2, rejection_reason=$3, priority_score=$4,
            revision=$5, updated_at=$6
        WHERE id=$7 AND revision=$8`
	cmd, err := tx.Exec(ctx, update,
		next.Status,
		next.AssignedTo,
		next.RejectionReason,
		next.PriorityScore,
		next.Revision,
		next.UpdatedAt,
		next.ID,
		expectedRevision,
	)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM issues WHERE id=$1)`, next.ID).Scan(&exists); err != nil {
			return mapPgError(err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrRevisionConflict
	}

	if err := r.events.insert(ctx, tx, event); err != nil {
		if errors.Is(mapPgError(err), ErrDuplicate) {
			return ErrRevisionConflict
		}
		return err
	}
	return tx.Commit(ctx)
}

func (r *issueRepository) ListEvents(ctx context.Context, issueID string, limit, offset int) ([]domain.IssueEvent, error) {
	events, err := r.events.listByIssue(ctx, r.pool, issueID, limit, offset)
	return events, mapPgError(err)
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := `SELECT ` + issueColumns + ` FROM issues`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.WardZone != nil {
		args = append(args, *filter.WardZone)
		clauses = append(clauses, fmt.Sprintf("ward_zone=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, inClause("status", toAny(filter.Statuses), &args))
	}
	if len(filter.Categories) > 0 {
		clauses = append(clauses, inClause("category", toAny(filter.Categories), &args))
	}
	if len(filter.Severities) > 0 {
		clauses = append(clauses, inClause("severity", toAny(filter.Severities), &args))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(ticket_id) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 20)

	query := fmt.Sprintf(`%s WHERE %s ORDER BY priority_score DESC, updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func (r *issueRepository) CountByStatus(ctx context.Context) (map[domain.IssueStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.IssueStatus]int{}
	for rows.Next() {
		var status domain.IssueStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *issueRepository) CountByCategory(ctx context.Context) (map[domain.IssueCategory]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM issues GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.IssueCategory]int{}
	for rows.Next() {
		var category domain.IssueCategory
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(
		&issue.ID,
		&issue.TicketID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Severity,
		&issue.Status,
		&issue.AssignedTo,
		&issue.ReporterID,
		&issue.Anonymous,
		&issue.Location,
		&issue.WardZone,
		&issue.PriorityScore,
		&issue.RejectionReason,
		&issue.Revision,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func inClause(column string, values []any, args *[]any) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		*args = append(*args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(*args))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

func toAny[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func normalizePage(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
