package handlers

import (
	"time"

	"newsboard/internal/models"
	"newsboard/internal/utils"
)

// 响应字段白名单，避免直接序列化 model（邮箱、密码、零值关联）

type userBrief struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	KarmaScore int    `json:"karma_score"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

type userView struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	KarmaScore     int       `json:"karma_score"`
	KarmaLevel     string    `json:"karma_level"`
	AvatarURL      string    `json:"avatar_url"`
	Bio            string    `json:"bio"`
	WebsiteURL     string    `json:"website_url"`
	Role           string    `json:"role"`
	IsVerified     bool      `json:"is_verified"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type categoryBrief struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type categoryView struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description"`
	DisplayOrder    int             `json:"display_order"`
	CreatedAt       time.Time       `json:"created_at"`
	Subcategories   []categoryBrief `json:"subcategories"`
	Parent          *categoryBrief  `json:"parent,omitempty"`
	ArticleCount    *int64          `json:"article_count,omitempty"`
	SubscriberCount *int64          `json:"subscriber_count,omitempty"`
}

type tagView struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	UsageCount   int       `json:"usage_count"`
	CreatedAt    time.Time `json:"created_at"`
	ArticleCount *int64    `json:"article_count,omitempty"`
}

type tagBrief struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type articleView struct {
	ID              uint           `json:"id"`
	Title           string         `json:"title"`
	URL             string         `json:"url"`
	Domain          string         `json:"domain"`
	Description     string         `json:"description"`
	DescriptionHTML string         `json:"description_html,omitempty"`
	ThumbnailURL    string         `json:"thumbnail_url"`
	Status          string         `json:"status"`
	VoteCount       int            `json:"vote_count"`
	CommentCount    int            `json:"comment_count"`
	ViewCount       int            `json:"view_count"`
	HotnessScore    float64        `json:"hotness_score"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	User            *userBrief     `json:"user,omitempty"`
	Category        *categoryBrief `json:"category,omitempty"`
	Tags            []tagBrief     `json:"tags"`
	UserVote        *int           `json:"user_vote,omitempty"`
}

type commentView struct {
	ID          uint          `json:"id"`
	ArticleID   uint          `json:"article_id"`
	ParentID    *uint         `json:"parent_id"`
	Content     string        `json:"content"`
	ContentHTML string        `json:"content_html,omitempty"`
	Depth       int           `json:"depth"`
	VoteCount   int           `json:"vote_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	User        *userBrief    `json:"user,omitempty"`
	Article     *articleBrief `json:"article,omitempty"`
	Replies     []commentView `json:"replies,omitempty"`
}

type articleBrief struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type savedView struct {
	ID        uint        `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Article   articleView `json:"article"`
}

type reportView struct {
	ID         uint       `json:"id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
	Reporter   *userBrief `json:"reporter,omitempty"`
	Reportable struct {
		ID   uint   `json:"id"`
		Type string `json:"type"`
	} `json:"reportable"`
}

func newUserBrief(u *models.User) *userBrief {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &userBrief{ID: u.ID, Username: u.Username, KarmaScore: u.KarmaScore, AvatarURL: u.AvatarURL}
}

func newUserBriefs(users []models.User) []userBrief {
	out := make([]userBrief, 0, len(users))
	for i := range users {
		out = append(out, *newUserBrief(&users[i]))
	}
	return out
}

// newUserView withEmail 只在本人查看时为 true
func newUserView(u *models.User, withEmail bool) userView {
	v := userView{
		ID:             u.ID,
		Username:       u.Username,
		KarmaScore:     u.KarmaScore,
		KarmaLevel:     utils.KarmaLevel(u.KarmaScore),
		AvatarURL:      u.AvatarURL,
		Bio:            u.Bio,
		WebsiteURL:     u.WebsiteURL,
		Role:           u.Role,
		IsVerified:     u.IsVerified,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		CreatedAt:      u.CreatedAt,
	}
	if withEmail {
		v.Email = u.Email
	}
	return v
}

func newCategoryBrief(c *models.Category) *categoryBrief {
	if c == nil || c.ID == 0 {
		return nil
	}
	return &categoryBrief{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func newCategoryView(c *models.Category) categoryView {
	v := categoryView{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Description:   c.Description,
		DisplayOrder:  c.DisplayOrder,
		CreatedAt:     c.CreatedAt,
		Subcategories: make([]categoryBrief, 0, len(c.Subcategories)),
	}
	for i := range c.Subcategories {
		v.Subcategories = append(v.Subcategories, *newCategoryBrief(&c.Subcategories[i]))
	}
	return v
}

func newTagView(t *models.Tag) tagView {
	return tagView{ID: t.ID, Name: t.Name, Slug: t.Slug, UsageCount: t.UsageCount, CreatedAt: t.CreatedAt}
}

func newArticleView(a *models.Article) articleView {
	v := articleView{
		ID:              a.ID,
		Title:           a.Title,
		URL:             a.URL,
		Domain:          a.Domain,
		Description:     a.Description,
		DescriptionHTML: a.DescriptionHTML,
		ThumbnailURL:    a.ThumbnailURL,
		Status:          a.Status,
		VoteCount:       a.VoteCount,
		CommentCount:    a.CommentCount,
		ViewCount:       a.ViewCount,
		HotnessScore:    a.HotnessScore,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		User:            newUserBrief(&a.User),
		Category:        newCategoryBrief(&a.Category),
		Tags:            make([]tagBrief, 0, len(a.Tags)),
	}
	for _, t := range a.Tags {
		v.Tags = append(v.Tags, tagBrief{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return v
}

func newArticleViews(articles []models.Article) []articleView {
	out := make([]articleView, 0, len(articles))
	for i := range articles {
		out = append(out, newArticleView(&articles[i]))
	}
	return out
}

func newCommentView(c *models.Comment) commentView {
	v := commentView{
		ID:          c.ID,
		ArticleID:   c.ArticleID,
		ParentID:    c.ParentID,
		Content:     c.Content,
		ContentHTML: c.ContentHTML,
		Depth:       c.Depth,
		VoteCount:   c.VoteCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		User:        newUserBrief(&c.User),
	}
	if c.Article != nil && c.Article.ID != 0 {
		v.Article = &articleBrief{ID: c.Article.ID, Title: c.Article.Title}
	}
	if c.Replies != nil {
		v.Replies = make([]commentView, 0, len(c.Replies))
		for i := range c.Replies {
			v.Replies = append(v.Replies, newCommentView(&c.Replies[i]))
		}
	}
	return v
}

func newCommentViews(comments []models.Comment) []commentView {
	out := make([]commentView, 0, len(comments))
	for i := range comments {
		out = append(out, newCommentView(&comments[i]))
	}
	return out
}

func newReportView(r *models.Report) reportView {
	v := reportView{
		ID:         r.ID,
		Reason:     r.Reason,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		ResolvedAt: r.ResolvedAt,
		Reporter:   newUserBrief(&r.Reporter),
	}
	v.Reportable.ID = r.ReportableID
	v.Reportable.Type = string(r.ReportableType)
	return v
}
