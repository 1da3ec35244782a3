package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"newsboard/internal/apperr"
	"newsboard/internal/models"
	"newsboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	minReasonLength = 10
	maxReasonLength = 500
)

type ReportService struct {
	db *gorm.DB
}

func NewReportService(conn *gorm.DB) *ReportService {
	return &ReportService{db: conn}
}

// targetExists 按类型分派查询被举报对象
func targetExists(conn *gorm.DB, target models.EntityRef) error {
	var err error
	switch target.Kind {
	case models.KindArticle:
		err = conn.Select("id").First(&models.Article{}, target.ID).Error
	case models.KindComment:
		err = conn.Select("id").First(&models.Comment{}, target.ID).Error
	case models.KindUser:
		err = conn.Select("id").First(&models.User{}, target.ID).Error
	default:
		return apperr.Validation("Validation failed", "Reportable type is not included in the list")
	}
	return apperr.FromDB(err, "Reportable", "")
}

// Create 提交举报，理由 10-500 个字符
func (s *ReportService) Create(ctx context.Context, reporterID uint, target models.EntityRef, reason string) (*models.Report, error) {
	reason = strings.TrimSpace(reason)
	n := utf8.RuneCountInString(reason)
	switch {
	case n < minReasonLength:
		return nil, apperr.Validation("Validation failed", "Reason is too short (minimum is 10 characters)")
	case n > maxReasonLength:
		return nil, apperr.Validation("Validation failed", "Reason is too long (maximum is 500 characters)")
	}

	conn := s.db.WithContext(ctx)
	if err := targetExists(conn, target); err != nil {
		return nil, err
	}
	report := &models.Report{
		ReporterID:     reporterID,
		ReportableType: target.Kind,
		ReportableID:   target.ID,
		Reason:         reason,
		Status:         models.ReportPending,
	}
	if err := conn.Omit(clause.Associations).Create(report).Error; err != nil {
		return nil, apperr.FromDB(err, "Report", "")
	}
	return report, nil
}

// List 举报列表，status 为空时不过滤
func (s *ReportService) List(ctx context.Context, status string, page utils.Page) ([]models.Report, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	base := query.Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count reports", err)
	}
	var reports []models.Report
	err := base.Preload("Reporter").Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Limit()).Find(&reports).Error
	if err != nil {
		return nil, 0, apperr.Internal("list reports", err)
	}
	return reports, total, nil
}

func (s *ReportService) Resolve(ctx context.Context, reportID, resolverID uint) (*models.Report, error) {
	return s.close(ctx, reportID, resolverID, models.ReportResolved)
}

func (s *ReportService) Dismiss(ctx context.Context, reportID, resolverID uint) (*models.Report, error) {
	return s.close(ctx, reportID, resolverID, models.ReportDismissed)
}

// close 只有 pending 状态的举报可以处理
func (s *ReportService) close(ctx context.Context, reportID, resolverID uint, status string) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&report, reportID).Error; err != nil {
			return apperr.FromDB(err, "Report", "")
		}
		if report.Status != models.ReportPending {
			return apperr.Conflict("Report has already been " + report.Status)
		}
		now := time.Now()
		report.Status = status
		report.ResolverID = &resolverID
		report.ResolvedAt = &now
		return tx.Model(&report).Updates(map[string]any{
			"status":      status,
			"resolver_id": resolverID,
			"resolved_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}
