package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
)

// ReportQuery bounds the ticket population loaded for a report.
// CreatedFrom is inclusive and CreatedTo exclusive; nil bounds are open.
type ReportQuery struct {
	ProjectID   *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TicketReportRepository loads tickets together with their event logs.
type TicketReportRepository interface {
	// ListForReport returns a consistent snapshot of the matching tickets,
	// each with its events in log order.
	ListForReport(ctx context.Context, query ReportQuery) ([]domain.Ticket, error)
	// SnapshotVersion returns a watermark that changes whenever a matching
	// ticket or one of its events changes.
	SnapshotVersion(ctx context.Context, query ReportQuery) (string, error)
}

// AuthorizationRepository defines the port for RBAC and membership lookups.
type AuthorizationRepository interface {
	GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
	IsProjectMember(ctx context.Context, userID, projectID uuid.UUID) (bool, error)
}

// ReportCache stores rendered reports by key.
type ReportCache interface {
	// Get returns the cached payload and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
