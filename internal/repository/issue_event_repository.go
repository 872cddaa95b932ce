package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/citycare/issue-service/internal/domain"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// issueEventStore reads and appends issue_events rows. The table rejects
// UPDATE and DELETE through a trigger, so insert is the only write.
type issueEventStore struct{}

func (s *issueEventStore) insert(ctx context.Context, q querier, event domain.IssueEvent) error {
	const query = `
        INSERT INTO issue_events (id, issue_id, sequence, kind, actor_id, actor_role, from_status, to_status,
                                  from_assignee, to_assignee, reason, comment, report, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := q.Exec(ctx, query,
		event.ID,
		event.IssueID,
		event.Sequence,
		event.Kind,
		event.ActorID,
		event.ActorRole,
		event.FromStatus,
		event.ToStatus,
		event.FromAssignee,
		event.ToAssignee,
		event.Reason,
		event.Comment,
		event.Report,
		event.Timestamp,
	)
	return err
}

func (s *issueEventStore) listByIssue(ctx context.Context, q querier, issueID string, limit, offset int) ([]domain.IssueEvent, error) {
	query := `
        SELECT id, issue_id, sequence, kind, actor_id, actor_role, from_status, to_status,
               from_assignee, to_assignee, reason, comment, report, created_at
        FROM issue_events WHERE issue_id=$1 ORDER BY sequence ASC`
	if limit > 0 {
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	rows, err := q.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.IssueEvent{}
	for rows.Next() {
		var event domain.IssueEvent
		if err := rows.Scan(
			&event.ID,
			&event.IssueID,
			&event.Sequence,
			&event.Kind,
			&event.ActorID,
			&event.ActorRole,
			&event.FromStatus,
			&event.ToStatus,
			&event.FromAssignee,
			&event.ToAssignee,
			&event.Reason,
			&event.Comment,
			&event.Report,
			&event.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
