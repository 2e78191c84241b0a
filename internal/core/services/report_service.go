package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-kpi/internal/core/errors"
	"github.com/lorrc/service-desk-kpi/internal/core/kpi"
	"github.com/lorrc/service-desk-kpi/internal/core/ports"
)

const (
	reportKindSummary = "summary"
	reportKindSeries  = "series"
)

// ReportConfig holds the reporting settings shared by every request.
type ReportConfig struct {
	Rules    domain.SLARules
	Location *time.Location
	CacheTTL time.Duration
}

// ReportService implements SLA/KPI reporting over ticket snapshots.
type ReportService struct {
	ticketRepo ports.TicketReportRepository
	authzSvc   ports.AuthorizationService
	cache      ports.ReportCache
	clock      ports.Clock
	logger     *slog.Logger
	rules      domain.SLARules
	location   *time.Location
	cacheTTL   time.Duration
}

var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates a new report service. A nil cache disables
// caching; a nil location means UTC.
func NewReportService(
	ticketRepo ports.TicketReportRepository,
	authzSvc ports.AuthorizationService,
	cache ports.ReportCache,
	clock ports.Clock,
	logger *slog.Logger,
	cfg ReportConfig,
) ports.ReportService {
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = domain.DefaultSLARules()
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportService{
		ticketRepo: ticketRepo,
		authzSvc:   authzSvc,
		cache:      cache,
		clock:      clock,
		logger:     logger,
		rules:      maps.Clone(rules),
		location:   location,
		cacheTTL:   cfg.CacheTTL,
	}
}

// GetSummary aggregates every ticket created within the requested window.
func (s *ReportService) GetSummary(ctx context.Context, params ports.ReportParams) (*domain.KPIReport, error) {
	window, query, err := s.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(ctx, reportKindSummary, window, query)

	var report domain.KPIReport
	if s.readCache(ctx, key, &report) {
		report.Scope.GeneratedAt = s.now()
		return &report, nil
	}

	tickets, err := s.ticketRepo.ListForReport(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets for report: %w", err)
	}

	report = domain.KPIReport{
		Scope:   s.scope(window, params.ProjectID),
		Summary: kpi.SummarizeWindow(tickets, s.rules, window),
	}

	s.writeCache(ctx, key, report)
	return &report, nil
}

// GetSeries aggregates the requested window into calendar buckets.
func (s *ReportService) GetSeries(ctx context.Context, params ports.ReportParams) (*domain.KPISeries, error) {
	window, query, err := s.prepare(ctx, params)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(ctx, reportKindSeries, window, query)

	var series domain.KPISeries
	if s.readCache(ctx, key, &series) {
		series.Scope.GeneratedAt = s.now()
		return &series, nil
	}

	tickets, err := s.ticketRepo.ListForReport(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets for report: %w", err)
	}

	series = domain.KPISeries{
		Scope:   s.scope(window, params.ProjectID),
		Buckets: kpi.AggregateWindow(tickets, s.rules, window),
	}

	s.writeCache(ctx, key, series)
	return &series, nil
}

// SLARules returns a copy of the effective rule table.
func (s *ReportService) SLARules() domain.SLARules {
	return maps.Clone(s.rules)
}

// prepare authorizes the viewer and resolves the window and its query.
func (s *ReportService) prepare(ctx context.Context, params ports.ReportParams) (kpi.Window, ports.ReportQuery, error) {
	if err := s.authorize(ctx, params.ViewerID, params.ProjectID); err != nil {
		return kpi.Window{}, ports.ReportQuery{}, err
	}

	window, err := kpi.ParseWindow(params.Window, s.now())
	if err != nil {
		return kpi.Window{}, ports.ReportQuery{}, err
	}

	start, end := window.Bounds()
	return window, ports.ReportQuery{
		ProjectID:   params.ProjectID,
		CreatedFrom: &start,
		CreatedTo:   &end,
	}, nil
}

func (s *ReportService) authorize(ctx context.Context, viewerID uuid.UUID, projectID *uuid.UUID) error {
	canRead, err := s.authzSvc.Can(ctx, viewerID, domain.PermissionReportsRead)
	if err != nil {
		return err
	}
	if !canRead {
		return apperrors.ErrForbidden
	}

	canReadAll, err := s.authzSvc.Can(ctx, viewerID, domain.PermissionReportsReadAll)
	if err != nil {
		return err
	}
	if canReadAll {
		return nil
	}

	// Everyone else reports on one project they belong to.
	if projectID == nil {
		return apperrors.ErrProjectRequired
	}
	member, err := s.authzSvc.CanViewProject(ctx, viewerID, *projectID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrNotProjectMember
	}
	return nil
}

func (s *ReportService) now() time.Time {
	return s.clock.Now().In(s.location)
}

func (s *ReportService) scope(window kpi.Window, projectID *uuid.UUID) domain.ReportScope {
	start, end := window.Bounds()
	return domain.ReportScope{
		Window:      window.Spec,
		WindowKind:  window.Kind.String(),
		PeriodStart: start,
		PeriodEnd:   end,
		ProjectID:   projectID,
		GeneratedAt: s.now(),
	}
}

// cacheKey returns "" when the report must not be cached.
func (s *ReportService) cacheKey(ctx context.Context, kind string, window kpi.Window, query ports.ReportQuery) string {
	if s.cache == nil || s.cacheTTL <= 0 {
		return ""
	}

	version, err := s.ticketRepo.SnapshotVersion(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "snapshot version unavailable, skipping report cache",
			"error", err,
		)
		return ""
	}

	project := "all"
	if query.ProjectID != nil {
		project = query.ProjectID.String()
	}
	start, end := window.Bounds()

	return fmt.Sprintf("kpi:%s:%s:%s:%s:%s:%s:%s",
		kind,
		window.Spec,
		start.Format(time.RFC3339),
		end.Format(time.RFC3339),
		project,
		s.rules.Fingerprint(),
		version,
	)
}

func (s *ReportService) readCache(ctx context.Context, key string, dst any) bool {
	if key == "" {
		return false
	}

	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "report cache read failed", "error", err, "key", key)
		return false
	}
	if !ok {
		return false
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		s.logger.WarnContext(ctx, "discarding undecodable cached report", "error", err, "key", key)
		return false
	}
	return true
}

func (s *ReportService) writeCache(ctx context.Context, key string, report any) {
	if key == "" {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode report for cache", "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "report cache write failed", "error", err, "key", key)
	}
}
