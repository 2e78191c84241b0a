package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-kpi/internal/core/errors"
	"github.com/lorrc/service-desk-kpi/internal/core/mocks"
	"github.com/lorrc/service-desk-kpi/internal/core/ports"
	"github.com/lorrc/service-desk-kpi/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var reportNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

type reportFixture struct {
	repo  *mocks.MockTicketReportRepository
	authz *mocks.MockAuthorizationService
	cache *mocks.MockReportCache
}

func newReportFixture() *reportFixture {
	return &reportFixture{
		repo:  mocks.NewMockTicketReportRepository(),
		authz: mocks.NewMockAuthorizationService(),
		cache: mocks.NewMockReportCache(),
	}
}

func (f *reportFixture) service(withCache bool, cfg services.ReportConfig) ports.ReportService {
	var cache ports.ReportCache
	if withCache {
		cache = f.cache
	}
	return services.NewReportService(
		f.repo,
		f.authz,
		cache,
		mocks.FixedClock{At: reportNow},
		slog.New(slog.DiscardHandler),
		cfg,
	)
}

func (f *reportFixture) allowAll(ctx context.Context, viewerID uuid.UUID) {
	f.authz.On("Can", ctx, viewerID, domain.PermissionReportsRead).Return(true, nil)
	f.authz.On("Can", ctx, viewerID, domain.PermissionReportsReadAll).Return(true, nil)
}

func monthQuery(projectID *uuid.UUID, year int, month time.Month) ports.ReportQuery {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return ports.ReportQuery{ProjectID: projectID, CreatedFrom: &start, CreatedTo: &end}
}

func reportTicket(id int64, created time.Time, response time.Duration) domain.Ticket {
	return domain.Ticket{
		ID:         id,
		Priority:   domain.PriorityHigh,
		Status:     domain.StatusInProgress,
		Created:    &created,
		AssignedTo: &domain.Assignee{Email: "agent@example.com"},
		Events: []domain.TicketEvent{
			{Message: "Assigned to agent", Timestamp: created.Add(response), AuthorRole: domain.RoleSystem},
		},
	}
}

func TestReportService_GetSummary(t *testing.T) {
	ctx := context.Background()
	viewerID := uuid.New()

	t.Run("success for org-wide viewer", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(false, services.ReportConfig{})

		f.allowAll(ctx, viewerID)
		f.repo.On("ListForReport", ctx, monthQuery(nil, 2024, time.March)).Return([]domain.Ticket{
			reportTicket(1, time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC), 30*time.Minute),
			reportTicket(2, time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC), 90*time.Minute),
		}, nil)

		report, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03"})

		require.NoError(t, err)
		assert.Equal(t, "2024-03", report.Scope.Window)
		assert.Equal(t, "month", report.Scope.WindowKind)
		assert.Equal(t, reportNow, report.Scope.GeneratedAt)
		assert.Nil(t, report.Scope.ProjectID)
		assert.Equal(t, 2, report.Summary.Count)
		assert.Equal(t, 1, report.Summary.BreachedCount)
		assert.Equal(t, float64(time.Hour.Milliseconds()), report.Summary.AverageResponseMs)

		f.authz.AssertExpectations(t)
		f.repo.AssertExpectations(t)
		f.repo.AssertNotCalled(t, "SnapshotVersion", mock.Anything, mock.Anything)
	})

	t.Run("forbidden without reports:read", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(false, services.ReportConfig{})

		f.authz.On("Can", ctx, viewerID, domain.PermissionReportsRead).Return(false, nil)

		report, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID})

		assert.Nil(t, report)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.repo.AssertNotCalled(t, "ListForReport", mock.Anything, mock.Anything)
	})

	t.Run("project required for scoped viewer", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(false, services.ReportConfig{})

		f.authz.On("Can", ctx, viewerID, domain.PermissionReportsRead).Return(true, nil)
		f.authz.On("Can", ctx, viewerID, domain.PermissionReportsReadAll).Return(false, nil)

		_, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID})

		assert.ErrorIs(t, err, apperrors.ErrProjectRequired)
	})

	t.Run("not a project member", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(false, services.ReportConfig{})
		projectID := uuid.New()

		f.authz.On("Can", ctx, viewerID, domain.PermissionReportsRead).Return(true, nil)
		f.authz.On("Can", ctx, viewerID, domain.PermissionReportsReadAll).Return(false, nil)
		f.authz.On("CanViewProject", ctx, viewerID, projectID).Return(false, nil)

		_, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, ProjectID: &projectID})

		assert.ErrorIs(t, err, apperrors.ErrNotProjectMember)
		f.repo.AssertNotCalled(t, "ListForReport", mock.Anything, mock.Anything)
	})

	t.Run("project member sees project tickets", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(false, services.ReportConfig{})
		projectID := uuid.New()

		f.authz.On("Can", ctx, viewerID, domain.PermissionReportsRead).Return(true, nil)
		f.authz.On("Can", ctx, viewerID, domain.PermissionReportsReadAll).Return(false, nil)
		f.authz.On("CanViewProject", ctx, viewerID, projectID).Return(true, nil)
		f.repo.On("ListForReport", ctx, monthQuery(&projectID, 2024, time.March)).Return([]domain.Ticket{}, nil)

		report, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03", ProjectID: &projectID})

		require.NoError(t, err)
		assert.Equal(t, &projectID, report.Scope.ProjectID)
		assert.Equal(t, domain.EmptyKPISummary(), report.Summary)
		f.repo.AssertExpectations(t)
	})

	t.Run("invalid window", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(false, services.ReportConfig{})
		f.allowAll(ctx, viewerID)

		_, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-13"})

		assert.ErrorIs(t, err, apperrors.ErrInvalidWindow)
		f.repo.AssertNotCalled(t, "ListForReport", mock.Anything, mock.Anything)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(false, services.ReportConfig{})
		boom := errors.New("connection reset")

		f.allowAll(ctx, viewerID)
		f.repo.On("ListForReport", ctx, mock.Anything).Return(nil, boom)

		_, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03"})

		assert.ErrorIs(t, err, boom)
	})
}

func TestReportService_GetSummary_Cache(t *testing.T) {
	ctx := context.Background()
	viewerID := uuid.New()
	cfg := services.ReportConfig{CacheTTL: time.Minute}
	query := monthQuery(nil, 2024, time.March)

	summaryKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "kpi:summary:2024-03:") && strings.HasSuffix(key, ":v7")
	})

	t.Run("hit skips the repository", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(true, cfg)

		cached, err := json.Marshal(domain.KPIReport{
			Scope: domain.ReportScope{
				Window:      "2024-03",
				WindowKind:  "month",
				GeneratedAt: reportNow.Add(-time.Hour),
			},
			Summary: domain.KPISummary{Count: 42, Details: []domain.KPIDetail{}},
		})
		require.NoError(t, err)

		f.allowAll(ctx, viewerID)
		f.repo.On("SnapshotVersion", ctx, query).Return("v7", nil)
		f.cache.On("Get", ctx, summaryKey).Return(cached, true, nil)

		report, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03"})

		require.NoError(t, err)
		assert.Equal(t, 42, report.Summary.Count)
		assert.Equal(t, reportNow, report.Scope.GeneratedAt)
		f.repo.AssertNotCalled(t, "ListForReport", mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("miss computes and stores", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(true, cfg)

		f.allowAll(ctx, viewerID)
		f.repo.On("SnapshotVersion", ctx, query).Return("v7", nil)
		f.repo.On("ListForReport", ctx, query).Return([]domain.Ticket{
			reportTicket(1, time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC), time.Minute),
		}, nil)
		f.cache.On("Get", ctx, summaryKey).Return(nil, false, nil)
		f.cache.On("Set", ctx, summaryKey, mock.AnythingOfType("[]uint8"), time.Minute).Return(nil)

		report, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03"})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Summary.Count)
		f.cache.AssertExpectations(t)
	})

	t.Run("cache failures are bypassed", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(true, cfg)

		f.allowAll(ctx, viewerID)
		f.repo.On("SnapshotVersion", ctx, query).Return("v7", nil)
		f.repo.On("ListForReport", ctx, query).Return([]domain.Ticket{}, nil)
		f.cache.On("Get", ctx, summaryKey).Return(nil, false, errors.New("redis down"))
		f.cache.On("Set", ctx, summaryKey, mock.Anything, time.Minute).Return(errors.New("redis down"))

		report, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03"})

		require.NoError(t, err)
		assert.Equal(t, 0, report.Summary.Count)
		f.repo.AssertExpectations(t)
	})

	t.Run("undecodable entry is recomputed", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(true, cfg)

		f.allowAll(ctx, viewerID)
		f.repo.On("SnapshotVersion", ctx, query).Return("v7", nil)
		f.repo.On("ListForReport", ctx, query).Return([]domain.Ticket{}, nil)
		f.cache.On("Get", ctx, summaryKey).Return([]byte("{not json"), true, nil)
		f.cache.On("Set", ctx, summaryKey, mock.Anything, time.Minute).Return(nil)

		_, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03"})

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("no snapshot version disables the cache", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(true, cfg)

		f.allowAll(ctx, viewerID)
		f.repo.On("SnapshotVersion", ctx, query).Return("", errors.New("timeout"))
		f.repo.On("ListForReport", ctx, query).Return([]domain.Ticket{}, nil)

		_, err := svc.GetSummary(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03"})

		require.NoError(t, err)
		f.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReportService_GetSeries(t *testing.T) {
	ctx := context.Background()
	viewerID := uuid.New()

	t.Run("weekly buckets for a month", func(t *testing.T) {
		f := newReportFixture()
		svc := f.service(false, services.ReportConfig{})

		f.allowAll(ctx, viewerID)
		f.repo.On("ListForReport", ctx, monthQuery(nil, 2024, time.February)).Return([]domain.Ticket{
			reportTicket(1, time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC), time.Minute),
		}, nil)

		series, err := svc.GetSeries(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-02"})

		require.NoError(t, err)
		require.Len(t, series.Buckets, 5)
		assert.Equal(t, "Week 2", series.Buckets[1].Label)
		assert.Equal(t, 1, series.Buckets[1].Summary.Count)
		assert.Equal(t, 0, series.Buckets[0].Summary.Count)
	})

	t.Run("relative window uses the configured location", func(t *testing.T) {
		f := newReportFixture()
		tokyo := time.FixedZone("JST", 9*60*60)
		svc := f.service(false, services.ReportConfig{Location: tokyo})

		f.allowAll(ctx, viewerID)
		f.repo.On("ListForReport", ctx, mock.MatchedBy(func(q ports.ReportQuery) bool {
			return q.CreatedFrom.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, tokyo)) &&
				q.CreatedTo.Equal(time.Date(2024, time.April, 1, 0, 0, 0, 0, tokyo))
		})).Return([]domain.Ticket{}, nil)

		series, err := svc.GetSeries(ctx, ports.ReportParams{ViewerID: viewerID, Window: "last3months"})

		require.NoError(t, err)
		require.Len(t, series.Buckets, 3)
		assert.Equal(t, "Jan 2024", series.Buckets[0].Label)
		assert.Equal(t, "relative", series.Scope.WindowKind)
		f.repo.AssertExpectations(t)
	})

	t.Run("custom rules drive breaches", func(t *testing.T) {
		f := newReportFixture()
		rules := domain.SLARules{domain.PriorityHigh: {ResponseMinutes: 1, ResolutionMinutes: 1}}
		svc := f.service(false, services.ReportConfig{Rules: rules})

		f.allowAll(ctx, viewerID)
		f.repo.On("ListForReport", ctx, mock.Anything).Return([]domain.Ticket{
			reportTicket(1, time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC), 5*time.Minute),
		}, nil)

		series, err := svc.GetSeries(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-02"})

		require.NoError(t, err)
		assert.Equal(t, 1, series.Buckets[1].Summary.BreachedCount)
	})
}

func TestReportService_GetSeries_CacheHit(t *testing.T) {
	ctx := context.Background()
	viewerID := uuid.New()
	f := newReportFixture()
	svc := f.service(true, services.ReportConfig{CacheTTL: time.Minute})

	cached, err := json.Marshal(domain.KPISeries{
		Scope: domain.ReportScope{
			Window:      "2024-03",
			WindowKind:  "month",
			GeneratedAt: reportNow.Add(-24 * time.Hour),
		},
		Buckets: []domain.TimeBucket{{Label: "Week 1"}},
	})
	require.NoError(t, err)

	f.allowAll(ctx, viewerID)
	f.repo.On("SnapshotVersion", ctx, monthQuery(nil, 2024, time.March)).Return("v3", nil)
	f.cache.On("Get", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "kpi:series:2024-03:") && strings.HasSuffix(key, ":v3")
	})).Return(cached, true, nil)

	series, err := svc.GetSeries(ctx, ports.ReportParams{ViewerID: viewerID, Window: "2024-03"})

	require.NoError(t, err)
	require.Len(t, series.Buckets, 1)
	assert.Equal(t, "Week 1", series.Buckets[0].Label)
	assert.Equal(t, reportNow, series.Scope.GeneratedAt)
	f.repo.AssertNotCalled(t, "ListForReport", mock.Anything, mock.Anything)
}

func TestReportService_SLARules(t *testing.T) {
	f := newReportFixture()

	svc := f.service(false, services.ReportConfig{})
	rules := svc.SLARules()
	assert.Equal(t, domain.DefaultSLARules(), rules)

	delete(rules, domain.PriorityHigh)
	assert.Contains(t, svc.SLARules(), domain.PriorityHigh)
}
