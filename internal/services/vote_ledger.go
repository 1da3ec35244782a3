package services

import (
	"context"
	"errors"

	"newsboard/internal/apperr"
	"newsboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	VoteUp   = 1
	VoteDown = -1
)

// ErrInvalidVote 投票值只能是 1 或 -1
var ErrInvalidVote = apperr.Validation("Invalid vote type", "vote_type must be 1 or -1")

// VoteLedger 文章和评论的投票记录。vote_count 总是由投票记录求和得到
type VoteLedger struct {
	db    *gorm.DB
	karma *KarmaLedger
}

func NewVoteLedger(conn *gorm.DB, karma *KarmaLedger) *VoteLedger {
	return &VoteLedger{db: conn, karma: karma}
}

func (l *VoteLedger) Upvote(ctx context.Context, subject models.EntityRef, userID uint) (int, error) {
	return l.Vote(ctx, subject, userID, VoteUp)
}

func (l *VoteLedger) Downvote(ctx context.Context, subject models.EntityRef, userID uint) (int, error) {
	return l.Vote(ctx, subject, userID, VoteDown)
}

// Vote 设置用户对 subject 的投票，重复投票覆盖原值。返回最新的 vote_count
func (l *VoteLedger) Vote(ctx context.Context, subject models.EntityRef, userID uint, value int) (int, error) {
	if value != VoteUp && value != VoteDown {
		return 0, ErrInvalidVote
	}
	if !subject.Votable() {
		return 0, apperr.Validation("Invalid vote subject")
	}

	var count int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 锁定被投票对象，同一对象上的投票串行执行
		if err := lockSubject(tx, subject); err != nil {
			return err
		}

		// 2. 查询之前的投票
		var prior models.Vote
		err := tx.Where("subject_type = ? AND subject_id = ? AND user_id = ?", subject.Kind, subject.ID, userID).
			Take(&prior).Error
		hadPrior := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Internal("load vote", err)
		}

		// 3. 唯一索引上 upsert，不会产生第二条记录
		vote := models.Vote{
			SubjectType: subject.Kind,
			SubjectID:   subject.ID,
			UserID:      userID,
			Value:       value,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "subject_type"}, {Name: "subject_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      value,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&vote).Error
		if err != nil {
			return apperr.FromDB(err, "Vote", "has already voted")
		}

		// 4. 重新求和
		count, err = recountVotes(tx, subject)
		if err != nil {
			return err
		}

		// 5. 首次投票记一条 0 分的流水
		if !hadPrior {
			activity := models.ActivityUpvote
			if value == VoteDown {
				activity = models.ActivityDownvote
			}
			if _, err := l.karma.WithTx(tx).Record(ctx, Activity{
				UserID: userID,
				Type:   activity,
				Entity: subject,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Unvote 撤销投票，没有投过票时不报错
func (l *VoteLedger) Unvote(ctx context.Context, subject models.EntityRef, userID uint) (int, error) {
	if !subject.Votable() {
		return 0, apperr.Validation("Invalid vote subject")
	}

	var count int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSubject(tx, subject); err != nil {
			return err
		}
		err := tx.Where("subject_type = ? AND subject_id = ? AND user_id = ?", subject.Kind, subject.ID, userID).
			Delete(&models.Vote{}).Error
		if err != nil {
			return apperr.Internal("delete vote", err)
		}
		count, err = recountVotes(tx, subject)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UserVote 返回用户当前的投票值，未投票为 0
func (l *VoteLedger) UserVote(ctx context.Context, subject models.EntityRef, userID uint) (int, error) {
	var vote models.Vote
	err := l.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ? AND user_id = ?", subject.Kind, subject.ID, userID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Internal("load vote", err)
	}
	return vote.Value, nil
}

// lockSubject 按类型分派，对被投票对象加行锁
func lockSubject(tx *gorm.DB, subject models.EntityRef) error {
	locking := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id")
	switch subject.Kind {
	case models.KindArticle:
		var article models.Article
		return apperr.FromDB(locking.First(&article, subject.ID).Error, "Article", "")
	case models.KindComment:
		var comment models.Comment
		err := locking.Where("is_deleted = ?", false).First(&comment, subject.ID).Error
		return apperr.FromDB(err, "Comment", "")
	}
	return apperr.Validation("Invalid vote subject")
}

func recountVotes(tx *gorm.DB, subject models.EntityRef) (int, error) {
	var count int
	err := tx.Raw(`UPDATE `+subject.Table()+` SET vote_count = (
		SELECT COALESCE(SUM(value), 0) FROM votes WHERE subject_type = ? AND subject_id = ?
	) WHERE id = ? RETURNING vote_count`, subject.Kind, subject.ID, subject.ID).Scan(&count).Error
	if err != nil {
		return 0, apperr.Internal("recount votes", err)
	}
	return count, nil
}
