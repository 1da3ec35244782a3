package models

import (
	"time"
)

const (
	ReportPending   = "pending"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

type Report struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ReporterID     uint       `gorm:"not null;index" json:"reporter_id"`
	Reporter       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reporter"`
	ReportableType EntityKind `gorm:"type:varchar(20);not null;index:idx_report_target" json:"reportable_type"` // article, comment, user
	ReportableID   uint       `gorm:"not null;index:idx_report_target" json:"reportable_id"`
	Reason         string     `gorm:"size:500;not null" json:"reason"`
	Status         string     `gorm:"size:20;default:'pending';not null;index" json:"status"`
	ResolverID     *uint      `json:"resolver_id"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (r *Report) Target() EntityRef {
	return EntityRef{Kind: r.ReportableType, ID: r.ReportableID}
}
