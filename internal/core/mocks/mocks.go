package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
	"github.com/lorrc/service-desk-kpi/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockTicketReportRepository is a mock implementation of ports.TicketReportRepository
type MockTicketReportRepository struct {
	mock.Mock
}

func NewMockTicketReportRepository() *MockTicketReportRepository {
	return &MockTicketReportRepository{}
}

func (m *MockTicketReportRepository) ListForReport(ctx context.Context, query ports.ReportQuery) ([]domain.Ticket, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketReportRepository) SnapshotVersion(ctx context.Context, query ports.ReportQuery) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

// MockAuthorizationRepository is a mock implementation of ports.AuthorizationRepository
type MockAuthorizationRepository struct {
	mock.Mock
}

func NewMockAuthorizationRepository() *MockAuthorizationRepository {
	return &MockAuthorizationRepository{}
}

func (m *MockAuthorizationRepository) GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAuthorizationRepository) IsProjectMember(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, projectID)
	return args.Bool(0), args.Error(1)
}

// MockReportCache is a mock implementation of ports.ReportCache
type MockReportCache struct {
	mock.Mock
}

func NewMockReportCache() *MockReportCache {
	return &MockReportCache{}
}

func (m *MockReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockReportCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// MockAuthorizationService is a mock implementation of ports.AuthorizationService
type MockAuthorizationService struct {
	mock.Mock
}

func NewMockAuthorizationService() *MockAuthorizationService {
	return &MockAuthorizationService{}
}

func (m *MockAuthorizationService) Can(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	args := m.Called(ctx, userID, permission)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthorizationService) GetPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAuthorizationService) CanViewProject(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, projectID)
	return args.Bool(0), args.Error(1)
}

// MockReportService is a mock implementation of ports.ReportService
type MockReportService struct {
	mock.Mock
}

func NewMockReportService() *MockReportService {
	return &MockReportService{}
}

func (m *MockReportService) GetSummary(ctx context.Context, params ports.ReportParams) (*domain.KPIReport, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KPIReport), args.Error(1)
}

func (m *MockReportService) GetSeries(ctx context.Context, params ports.ReportParams) (*domain.KPISeries, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KPISeries), args.Error(1)
}

func (m *MockReportService) SLARules() domain.SLARules {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(domain.SLARules)
}

// FixedClock is a ports.Clock that always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}
