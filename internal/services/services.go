package services

import (
	"gorm.io/gorm"
)

// Services 所有业务服务，共享同一个数据库连接
type Services struct {
	Karma      *KarmaLedger
	Votes      *VoteLedger
	Comments   *CommentTree
	Ranking    *RankingEngine
	Articles   *ArticleService
	Categories *CategoryService
	Tags       *TagService
	Users      *UserService
	Saved      *SavedService
	Reports    *ReportService
}

// New crawler 可以为 nil
func New(conn *gorm.DB, crawler *CrawlerService) *Services {
	karma := NewKarmaLedger(conn)
	return &Services{
		Karma:      karma,
		Votes:      NewVoteLedger(conn, karma),
		Comments:   NewCommentTree(conn, karma),
		Ranking:    NewRankingEngine(conn),
		Articles:   NewArticleService(conn, karma, crawler),
		Categories: NewCategoryService(conn),
		Tags:       NewTagService(conn),
		Users:      NewUserService(conn),
		Saved:      NewSavedService(conn),
		Reports:    NewReportService(conn),
	}
}
