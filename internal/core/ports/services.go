package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
)

// AuthorizationService defines the port for checking user permissions.
type AuthorizationService interface {
	Can(ctx context.Context, userID uuid.UUID, permission string) (bool, error)
	GetPermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
	CanViewProject(ctx context.Context, userID, projectID uuid.UUID) (bool, error)
}

// ReportParams defines the input for building a KPI report.
type ReportParams struct {
	ViewerID  uuid.UUID
	Window    string
	ProjectID *uuid.UUID
}

// ReportService defines the port for SLA/KPI reporting.
type ReportService interface {
	GetSummary(ctx context.Context, params ReportParams) (*domain.KPIReport, error)
	GetSeries(ctx context.Context, params ReportParams) (*domain.KPISeries, error)
	SLARules() domain.SLARules
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
