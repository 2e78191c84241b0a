package http

import (
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
)

// KPIDetailResponse is one classified ticket. Durations are milliseconds;
// null means the milestone was never reached.
type KPIDetailResponse struct {
	TicketID         int64  `json:"ticketId"`
	TicketNumber     string `json:"ticketNumber"`
	Priority         string `json:"priority"`
	Status           string `json:"status"`
	ResponseTimeMs   *int64 `json:"responseTimeMs"`
	ResolutionTimeMs *int64 `json:"resolutionTimeMs"`
	Breached         bool   `json:"breached"`
}

// KPISummaryResponse is the aggregate over a ticket set.
type KPISummaryResponse struct {
	Count               int                 `json:"count"`
	AverageResponseMs   float64             `json:"averageResponseMs"`
	AverageResolutionMs float64             `json:"averageResolutionMs"`
	BreachedCount       int                 `json:"breachedCount"`
	Details             []KPIDetailResponse `json:"details"`
}

// ReportScopeResponse describes the window a report covers.
type ReportScopeResponse struct {
	Window      string  `json:"window"`
	WindowKind  string  `json:"windowKind"`
	PeriodStart string  `json:"periodStart"`
	PeriodEnd   string  `json:"periodEnd"`
	ProjectID   *string `json:"projectId"`
	GeneratedAt string  `json:"generatedAt"`
}

// KPIReportResponse is the body of GET /reports/kpi/summary.
type KPIReportResponse struct {
	Scope   ReportScopeResponse `json:"scope"`
	Summary KPISummaryResponse  `json:"summary"`
}

// TimeBucketResponse is one chart period.
type TimeBucketResponse struct {
	Label       string             `json:"label"`
	PeriodStart string             `json:"periodStart"`
	PeriodEnd   string             `json:"periodEnd"`
	Summary     KPISummaryResponse `json:"summary"`
}

// KPISeriesResponse is the body of GET /reports/kpi/series.
type KPISeriesResponse struct {
	Scope   ReportScopeResponse  `json:"scope"`
	Buckets []TimeBucketResponse `json:"buckets"`
}

// SLARuleResponse is one row of the effective rule table.
type SLARuleResponse struct {
	Priority          string `json:"priority"`
	ResponseMinutes   int    `json:"responseMinutes"`
	ResolutionMinutes int    `json:"resolutionMinutes"`
}

func toKPIReportResponse(report *domain.KPIReport) KPIReportResponse {
	return KPIReportResponse{
		Scope:   toScopeResponse(report.Scope),
		Summary: toSummaryResponse(report.Summary),
	}
}

func toKPISeriesResponse(series *domain.KPISeries) KPISeriesResponse {
	buckets := make([]TimeBucketResponse, len(series.Buckets))
	for i, b := range series.Buckets {
		buckets[i] = TimeBucketResponse{
			Label:       b.Label,
			PeriodStart: formatPeriod(b.PeriodStart),
			PeriodEnd:   formatPeriod(b.PeriodEnd),
			Summary:     toSummaryResponse(b.Summary),
		}
	}
	return KPISeriesResponse{
		Scope:   toScopeResponse(series.Scope),
		Buckets: buckets,
	}
}

func toScopeResponse(scope domain.ReportScope) ReportScopeResponse {
	resp := ReportScopeResponse{
		Window:      scope.Window,
		WindowKind:  scope.WindowKind,
		PeriodStart: formatPeriod(scope.PeriodStart),
		PeriodEnd:   formatPeriod(scope.PeriodEnd),
		GeneratedAt: formatInstant(scope.GeneratedAt),
	}
	if scope.ProjectID != nil {
		id := scope.ProjectID.String()
		resp.ProjectID = &id
	}
	return resp
}

func toSummaryResponse(summary domain.KPISummary) KPISummaryResponse {
	details := make([]KPIDetailResponse, len(summary.Details))
	for i, d := range summary.Details {
		details[i] = KPIDetailResponse{
			TicketID:         d.TicketID,
			TicketNumber:     d.TicketNumber,
			Priority:         string(d.Priority),
			Status:           d.Status.String(),
			ResponseTimeMs:   d.ResponseTimeMs,
			ResolutionTimeMs: d.ResolutionTimeMs,
			Breached:         d.Breached,
		}
	}
	return KPISummaryResponse{
		Count:               summary.Count,
		AverageResponseMs:   summary.AverageResponseMs,
		AverageResolutionMs: summary.AverageResolutionMs,
		BreachedCount:       summary.BreachedCount,
		Details:             details,
	}
}

func toSLARuleResponses(rules domain.SLARules) []SLARuleResponse {
	out := make([]SLARuleResponse, 0, len(rules))
	for _, priority := range rules.Priorities() {
		rule := rules[priority]
		out = append(out, SLARuleResponse{
			Priority:          string(priority),
			ResponseMinutes:   rule.ResponseMinutes,
			ResolutionMinutes: rule.ResolutionMinutes,
		})
	}
	return out
}
