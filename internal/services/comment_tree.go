package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"newsboard/internal/apperr"
	"newsboard/internal/models"
	"newsboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentTree 物化路径存储的嵌套评论
type CommentTree struct {
	db    *gorm.DB
	karma *KarmaLedger
}

func NewCommentTree(conn *gorm.DB, karma *KarmaLedger) *CommentTree {
	return &CommentTree{db: conn, karma: karma}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return "", apperr.Validation("Validation failed", "Content can't be blank")
	}
	if n > models.MaxCommentLength {
		return "", apperr.Validation("Validation failed", "Content is too long (maximum is 10000 characters)")
	}
	return content, nil
}

// Create 创建评论。parentID 非空时父评论必须属于同一篇文章
func (t *CommentTree) Create(ctx context.Context, articleID, authorID uint, parentID *uint, content string) (*models.Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ArticleID: articleID,
		UserID:    authorID,
		Content:   content,
		Path:      models.MaterializedPath{},
	}

	err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 锁定文章行，和删除评论时的 comment_count 重算互斥
		if err := lockArticle(tx, articleID); err != nil {
			return err
		}

		// 2. 计算路径和层级
		if parentID != nil {
			var parent models.Comment
			if err := tx.First(&parent, *parentID).Error; err != nil {
				return apperr.FromDB(err, "Parent comment", "")
			}
			if parent.ArticleID != articleID {
				return apperr.Validation("Validation failed", "Parent comment must belong to the same article")
			}
			comment.ParentID = &parent.ID
			comment.Path = parent.SubtreePrefix()
			comment.Depth = parent.Depth + 1
		}

		if err := tx.Create(comment).Error; err != nil {
			return apperr.FromDB(err, "Comment", "")
		}

		// 3. 重算评论数
		if err := recountComments(tx, articleID); err != nil {
			return err
		}

		// 4. 评论 +1 karma
		_, err := t.karma.WithTx(tx).Record(ctx, Activity{
			UserID: authorID,
			Type:   models.ActivityComment,
			Entity: models.CommentRef(comment.ID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// SoftDelete 标记删除，子评论保持不变。重复删除不报错
func (t *CommentTree) SoftDelete(ctx context.Context, commentID uint) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id", "article_id").First(&comment, commentID).Error; err != nil {
			return apperr.FromDB(err, "Comment", "")
		}
		if err := lockArticle(tx, comment.ArticleID); err != nil {
			return err
		}
		err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
			Updates(map[string]any{"is_deleted": true, "updated_at": gorm.Expr("NOW()")}).Error
		if err != nil {
			return apperr.Internal("delete comment", err)
		}
		return recountComments(tx, comment.ArticleID)
	})
}

// Update 修改评论内容，已删除的评论不可修改
func (t *CommentTree) Update(ctx context.Context, commentID uint, content string) (*models.Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	var comment models.Comment
	conn := t.db.WithContext(ctx)
	if err := conn.Where("is_deleted = ?", false).First(&comment, commentID).Error; err != nil {
		return nil, apperr.FromDB(err, "Comment", "")
	}
	if err := conn.Model(&comment).Update("content", content).Error; err != nil {
		return nil, apperr.Internal("update comment", err)
	}
	comment.Content = content
	return &comment, nil
}

// Find 查询单条评论（包括已删除的），用于权限校验
func (t *CommentTree) Find(ctx context.Context, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := t.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		return nil, apperr.FromDB(err, "Comment", "")
	}
	return &comment, nil
}

// Get 查询未删除的评论和它的直接回复
func (t *CommentTree) Get(ctx context.Context, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := t.db.WithContext(ctx).
		Preload("User").
		Preload("Article", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title") }).
		Preload("Replies", activeReplies).
		Preload("Replies.User").
		Where("is_deleted = ?", false).
		First(&comment, commentID).Error
	if err != nil {
		return nil, apperr.FromDB(err, "Comment", "")
	}
	renderComment(&comment)
	return &comment, nil
}

// ListRoots 分页返回文章的根评论，按创建时间升序，每条附带一层回复
func (t *CommentTree) ListRoots(ctx context.Context, articleID uint, page utils.Page) ([]models.Comment, int64, error) {
	conn := t.db.WithContext(ctx)
	if err := conn.Select("id").First(&models.Article{}, articleID).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "Article", "")
	}

	base := conn.Model(&models.Comment{}).
		Where("article_id = ? AND parent_id IS NULL AND is_deleted = ?", articleID, false).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count comments", err)
	}

	var roots []models.Comment
	err := base.
		Preload("User").
		Preload("Replies", activeReplies).
		Preload("Replies.User").
		Order("created_at ASC, id ASC").
		Offset(page.Offset()).Limit(page.Limit()).
		Find(&roots).Error
	if err != nil {
		return nil, 0, apperr.Internal("list comments", err)
	}
	for i := range roots {
		renderComment(&roots[i])
	}
	return roots, total, nil
}

// Subtree 路径前缀查询子孙评论，按层级和时间排序，不含已删除的
func (t *CommentTree) Subtree(ctx context.Context, commentID uint) ([]models.Comment, error) {
	conn := t.db.WithContext(ctx)
	var root models.Comment
	if err := conn.Select("id", "article_id", "path").First(&root, commentID).Error; err != nil {
		return nil, apperr.FromDB(err, "Comment", "")
	}

	prefix := root.SubtreePrefix().String()
	var comments []models.Comment
	err := conn.Preload("User").
		Where("article_id = ? AND is_deleted = ?", root.ArticleID, false).
		Where("(path = ? OR path LIKE ?)", prefix, prefix+".%").
		Order("depth ASC, created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, apperr.Internal("load subtree", err)
	}
	for i := range comments {
		renderComment(&comments[i])
	}
	return comments, nil
}

// ListByUser 用户发表的未删除评论，最新的在前
func (t *CommentTree) ListByUser(ctx context.Context, userID uint, page utils.Page) ([]models.Comment, int64, error) {
	base := t.db.WithContext(ctx).Model(&models.Comment{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal("count comments", err)
	}
	var comments []models.Comment
	err := base.Preload("Article", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title") }).
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit()).
		Find(&comments).Error
	if err != nil {
		return nil, 0, apperr.Internal("list comments", err)
	}
	return comments, total, nil
}

func activeReplies(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false).Order("created_at ASC, id ASC")
}

func renderComment(c *models.Comment) {
	c.ContentHTML = utils.RenderMarkdown(c.Content)
	for i := range c.Replies {
		c.Replies[i].ContentHTML = utils.RenderMarkdown(c.Replies[i].Content)
	}
}

func lockArticle(tx *gorm.DB, articleID uint) error {
	var article models.Article
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&article, articleID).Error
	return apperr.FromDB(err, "Article", "")
}

// recountComments comment_count 等于未删除评论数
func recountComments(tx *gorm.DB, articleID uint) error {
	err := tx.Exec(`UPDATE articles SET comment_count = (
		SELECT COUNT(*) FROM comments WHERE article_id = ? AND is_deleted = false
	) WHERE id = ?`, articleID, articleID).Error
	if err != nil {
		return apperr.Internal("recount comments", err)
	}
	return nil
}
