package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
	"github.com/lorrc/service-desk-kpi/internal/core/ports"
)

// TicketReportRepository reads tickets and their event logs for reporting.
type TicketReportRepository struct {
	pool *pgxpool.Pool
	tm   *TransactionManager
}

var _ ports.TicketReportRepository = (*TicketReportRepository)(nil)

// NewTicketReportRepository creates a new report repository.
func NewTicketReportRepository(pool *pgxpool.Pool) ports.TicketReportRepository {
	return &TicketReportRepository{
		pool: pool,
		tm:   NewTransactionManager(pool),
	}
}

// ListForReport loads the matching tickets and their events from a single
// snapshot. Tickets are ordered by creation time, then id.
func (r *TicketReportRepository) ListForReport(ctx context.Context, query ports.ReportQuery) ([]domain.Ticket, error) {
	var tickets []domain.Ticket

	err := r.tm.WithSnapshot(ctx, func(ctx context.Context) error {
		var err error
		tickets, err = r.fetchTickets(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to fetch tickets: %w", err)
		}
		if len(tickets) == 0 {
			return nil
		}
		if err := r.attachEvents(ctx, query, tickets); err != nil {
			return fmt.Errorf("failed to fetch ticket events: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// SnapshotVersion summarizes row counts, row versions and last write times
// of the matching tickets and events.
func (r *TicketReportRepository) SnapshotVersion(ctx context.Context, query ports.ReportQuery) (string, error) {
	where, args := reportFilter(query)
	sql := `
SELECT COUNT(*),
       COALESCE(MAX(t.row_updated_at), 'epoch'::timestamptz),
       COALESCE(SUM(ev.event_count), 0),
       COALESCE(SUM(ev.event_versions), 0),
       COALESCE(MAX(ev.last_written), 'epoch'::timestamptz)
FROM tickets t
LEFT JOIN LATERAL (
  SELECT COUNT(*) AS event_count,
         SUM(e.row_version) AS event_versions,
         MAX(e.row_updated_at) AS last_written
  FROM ticket_events e
  WHERE e.ticket_id = t.id
) ev ON TRUE
` + where

	var (
		ticketCount   int64
		lastUpdated   pgtype.Timestamptz
		eventCount    int64
		eventVersions int64
		lastWritten   pgtype.Timestamptz
	)
	row := GetDBTX(ctx, r.pool).QueryRow(ctx, sql, args...)
	if err := row.Scan(&ticketCount, &lastUpdated, &eventCount, &eventVersions, &lastWritten); err != nil {
		return "", fmt.Errorf("failed to read snapshot version: %w", err)
	}

	return fmt.Sprintf("%d.%d.%d.%d.%d",
		ticketCount,
		lastUpdated.Time.UnixMicro(),
		eventCount,
		eventVersions,
		lastWritten.Time.UnixMicro(),
	), nil
}

func (r *TicketReportRepository) fetchTickets(ctx context.Context, query ports.ReportQuery) ([]domain.Ticket, error) {
	where, args := reportFilter(query)
	sql := `
SELECT t.id, t.ticket_number, t.issue_type, t.project_id, t.priority, t.status,
       t.created_at, t.last_updated_at, t.assignee_email, t.assignee_name, t.assigned_at
FROM tickets t
` + where + `
ORDER BY t.created_at NULLS LAST, t.id
`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var (
			id            int64
			ticketNumber  pgtype.Text
			issueType     string
			projectID     pgtype.UUID
			priority      string
			status        string
			createdAt     pgtype.Timestamptz
			lastUpdatedAt pgtype.Timestamptz
			assigneeEmail pgtype.Text
			assigneeName  pgtype.Text
			assignedAt    pgtype.Timestamptz
		)
		if err := rows.Scan(
			&id, &ticketNumber, &issueType, &projectID, &priority, &status,
			&createdAt, &lastUpdatedAt, &assigneeEmail, &assigneeName, &assignedAt,
		); err != nil {
			return nil, err
		}

		ticket := domain.Ticket{
			ID:           id,
			TicketNumber: displayNumber(id, ticketNumber, issueType),
			ProjectID:    uuidPtr(projectID),
			Priority:     domain.TicketPriority(priority),
			Status:       domain.TicketStatus(status),
			Created:      timePtr(createdAt),
			LastUpdated:  timePtr(lastUpdatedAt),
		}
		if assigneeEmail.Valid || assigneeName.Valid || assignedAt.Valid {
			ticket.AssignedTo = &domain.Assignee{
				Email:      textOrEmpty(assigneeEmail),
				Name:       textOrEmpty(assigneeName),
				AssignedAt: timePtr(assignedAt),
			}
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *TicketReportRepository) attachEvents(ctx context.Context, query ports.ReportQuery, tickets []domain.Ticket) error {
	where, args := reportFilter(query)
	sql := `
SELECT e.ticket_id, e.message, e.author_role, e.occurred_at
FROM ticket_events e
JOIN tickets t ON t.id = e.ticket_id
` + where + `
ORDER BY e.ticket_id, e.id
`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	index := make(map[int64]int, len(tickets))
	for i, ticket := range tickets {
		index[ticket.ID] = i
	}

	for rows.Next() {
		var (
			ticketID   int64
			message    string
			authorRole string
			occurredAt pgtype.Timestamptz
		)
		if err := rows.Scan(&ticketID, &message, &authorRole, &occurredAt); err != nil {
			return err
		}

		i, ok := index[ticketID]
		if !ok {
			continue
		}
		event := domain.TicketEvent{
			Message:    message,
			AuthorRole: domain.AuthorRole(authorRole),
		}
		if occurredAt.Valid {
			event.Timestamp = occurredAt.Time
		}
		tickets[i].Events = append(tickets[i].Events, event)
	}

	return rows.Err()
}

// reportFilter builds the WHERE clause shared by every report query.
func reportFilter(query ports.ReportQuery) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if query.ProjectID != nil {
		args = append(args, pgtype.UUID{Bytes: *query.ProjectID, Valid: true})
		conditions = append(conditions, "t.project_id = $"+strconv.Itoa(len(args)))
	}
	if query.CreatedFrom != nil {
		args = append(args, *query.CreatedFrom)
		conditions = append(conditions, "t.created_at >= $"+strconv.Itoa(len(args)))
	}
	if query.CreatedTo != nil {
		args = append(args, *query.CreatedTo)
		conditions = append(conditions, "t.created_at < $"+strconv.Itoa(len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// displayNumber falls back to the issue type prefix and id when the ticket
// has no stored number.
func displayNumber(id int64, stored pgtype.Text, issueType string) string {
	if stored.Valid && stored.String != "" {
		return stored.String
	}
	return domain.IssueType(issueType).TicketPrefix() + strconv.FormatInt(id, 10)
}
