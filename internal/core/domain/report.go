package domain

import (
	"time"

	"github.com/google/uuid"
)

// Permissions checked by the reporting endpoints.
const (
	PermissionReportsRead    = "reports:read"
	PermissionReportsReadAll = "reports:read:all"
)

// ReportScope identifies the window and ticket population a report covers.
type ReportScope struct {
	Window      string
	WindowKind  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	ProjectID   *uuid.UUID
	GeneratedAt time.Time
}

// KPIReport is a single summary over a report window.
type KPIReport struct {
	Scope   ReportScope
	Summary KPISummary
}

// KPISeries is a report window split into chart buckets.
type KPISeries struct {
	Scope   ReportScope
	Buckets []TimeBucket
}
