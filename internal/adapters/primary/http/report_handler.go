package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/lorrc/service-desk-kpi/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-kpi/internal/adapters/primary/validation"
	apperrors "github.com/lorrc/service-desk-kpi/internal/core/errors"
	"github.com/lorrc/service-desk-kpi/internal/core/ports"
	"github.com/lorrc/service-desk-kpi/internal/infrastructure/logging"
)

// maxWindowLength bounds the window parameter; the longest valid spec is a
// date range of 22 characters.
const maxWindowLength = 32

var noStoreHeaders = map[string]string{"Cache-Control": "private, no-store"}

// ReportHandler serves KPI reports over HTTP.
type ReportHandler struct {
	reportService ports.ReportService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(
	reportService ports.ReportService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "reports"),
	}
}

// RegisterRoutes registers the /reports routes.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/kpi/summary", h.HandleSummary)
	r.Get("/kpi/series", h.HandleSeries)
	r.Get("/sla-rules", h.HandleSLARules)
}

// reportRequest is a parsed report query.
type reportRequest struct {
	params         ports.ReportParams
	includeDetails bool
}

// HandleSummary handles GET /reports/kpi/summary?window=&projectId=&details=.
func (h *ReportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	r, req, ok := h.parseReportRequest(w, r)
	if !ok {
		return
	}

	report, err := h.reportService.GetSummary(r.Context(), req.params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	resp := toKPIReportResponse(report)
	if !req.includeDetails {
		resp.Summary.Details = []KPIDetailResponse{}
	}
	WriteJSONWithHeaders(w, http.StatusOK, resp, noStoreHeaders)
}

// HandleSeries handles GET /reports/kpi/series?window=&projectId=&details=.
func (h *ReportHandler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	r, req, ok := h.parseReportRequest(w, r)
	if !ok {
		return
	}

	series, err := h.reportService.GetSeries(r.Context(), req.params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.DebugContext(r.Context(), "series generated",
		"window", series.Scope.Window,
		"buckets", len(series.Buckets),
	)

	resp := toKPISeriesResponse(series)
	if !req.includeDetails {
		for i := range resp.Buckets {
			resp.Buckets[i].Summary.Details = []KPIDetailResponse{}
		}
	}
	WriteJSONWithHeaders(w, http.StatusOK, resp, noStoreHeaders)
}

// HandleSLARules handles GET /reports/sla-rules.
func (h *ReportHandler) HandleSLARules(w http.ResponseWriter, r *http.Request) {
	if _, ok := mw.GetClaims(r.Context()); !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}
	WriteList(w, toSLARuleResponses(h.reportService.SLARules()))
}

// parseReportRequest reads the viewer and query parameters. The returned
// request carries the project ID for logging.
func (h *ReportHandler) parseReportRequest(w http.ResponseWriter, r *http.Request) (*http.Request, reportRequest, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return r, reportRequest{}, false
	}

	window := validation.QueryParam(r, "window")
	rawProjectID := validation.QueryParam(r, "projectId")
	includeDetails, detailsOK := validation.ParseBoolQueryParam(r, "details", true)

	v := validation.NewValidator().
		MaxLength("window", window, maxWindowLength).
		UUID("projectId", rawProjectID).
		Custom("details", detailsOK, "Must be true or false")
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return r, reportRequest{}, false
	}

	req := reportRequest{
		params: ports.ReportParams{
			ViewerID: claims.UserID,
			Window:   window,
		},
		includeDetails: includeDetails,
	}

	if rawProjectID != "" {
		projectID := uuid.MustParse(rawProjectID)
		req.params.ProjectID = &projectID
		r = r.WithContext(logging.WithProjectID(r.Context(), projectID.String()))
	}

	return r, req, true
}
