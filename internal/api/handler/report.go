package handler

import (
	"net/http"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// SalesReport returns today's, this week's and this month's completed sales
func (h *ReportHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.SalesReport(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Success(w, "Sales report fetched", report)
}
