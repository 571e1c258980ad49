package handler

import (
	"context"
	"net/http"

	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
	"github.com/safwanm/biztrack-backend/internal/service/reporting"
)

type reportService interface {
	AgingReceivables(ctx context.Context, segment domain.Segment) (*domain.AgingReport, error)
	AgingPayables(ctx context.Context, segment domain.Segment) (*domain.AgingReport, error)
	BuildSummary(ctx context.Context, segment domain.Segment) (*reporting.Summary, error)
}

type ReportHandler struct {
	reports reportService
}

func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) AgingReceivables(w http.ResponseWriter, r *http.Request) {
	segment, appErr := segmentFromQuery(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	report, err := h.reports.AgingReceivables(r.Context(), segment)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to build receivables aging", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, report)
}

func (h *ReportHandler) AgingPayables(w http.ResponseWriter, r *http.Request) {
	segment, appErr := segmentFromQuery(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	report, err := h.reports.AgingPayables(r.Context(), segment)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to build payables aging", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, report)
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	segment, appErr := segmentFromQuery(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	summary, err := h.reports.BuildSummary(r.Context(), segment)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to build summary", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, summary)
}
