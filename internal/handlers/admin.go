package handlers

import (
	"context"
	"net/http"

	"newsboard/internal/logger"
	"newsboard/internal/models"
	"newsboard/internal/services"

	"github.com/gin-gonic/gin"
)

// ReportHandler 举报提交和管理员处理
type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type reportRequest struct {
	Report struct {
		Reason string `json:"reason"`
	} `json:"report"`
	ReportableType string `json:"reportable_type"`
	ReportableID   uint   `json:"reportable_id"`
}

// Create reportable_type 为 Article / Comment / User
func (h *ReportHandler) Create(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	kind, ok := models.ParseEntityKind(req.ReportableType)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reportable not found"})
		return
	}
	_, err := h.reports.Create(c.Request.Context(), currentUser(c).ID, models.EntityRef{Kind: kind, ID: req.ReportableID}, req.Report.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Report submitted successfully"})
}

// List 管理员查看举报，可按 status 过滤
func (h *ReportHandler) List(c *gin.Context) {
	page := pageFrom(c, 0)
	reports, total, err := h.reports.List(c.Request.Context(), c.Query("status"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]reportView, 0, len(reports))
	for i := range reports {
		out = append(out, newReportView(&reports[i]))
	}
	listResponse(c, "reports", out, page, total)
}

func (h *ReportHandler) Resolve(c *gin.Context) {
	h.close(c, h.reports.Resolve)
}

func (h *ReportHandler) Dismiss(c *gin.Context) {
	h.close(c, h.reports.Dismiss)
}

func (h *ReportHandler) close(c *gin.Context, action func(ctx context.Context, reportID, resolverID uint) (*models.Report, error)) {
	id, ok := idParam(c, "id", "Report")
	if !ok {
		return
	}
	admin := currentUser(c)
	report, err := action(c.Request.Context(), id, admin.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Log.WithField("report_id", report.ID).WithField("status", report.Status).
		WithField("admin_id", admin.ID).Info("举报已处理")
	c.JSON(http.StatusOK, newReportView(report))
}
