package models

import "fmt"

// EntityKind 多态引用的类型标签（投票对象、举报目标、积分来源）
type EntityKind string

const (
	KindArticle EntityKind = "article"
	KindComment EntityKind = "comment"
	KindUser    EntityKind = "user"
)

// EntityRef 指向某个实体的 {kind, id} 引用
type EntityRef struct {
	Kind EntityKind
	ID   uint
}

func ArticleRef(id uint) EntityRef { return EntityRef{Kind: KindArticle, ID: id} }
func CommentRef(id uint) EntityRef { return EntityRef{Kind: KindComment, ID: id} }
func UserRef(id uint) EntityRef    { return EntityRef{Kind: KindUser, ID: id} }

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// ParseEntityKind 校验外部传入的类型名，兼容 Article/Comment/User 的写法
func ParseEntityKind(s string) (EntityKind, bool) {
	switch s {
	case "article", "Article":
		return KindArticle, true
	case "comment", "Comment":
		return KindComment, true
	case "user", "User":
		return KindUser, true
	}
	return "", false
}

// Votable 只有文章和评论可以被投票
func (r EntityRef) Votable() bool {
	return r.Kind == KindArticle || r.Kind == KindComment
}

// Table 返回实体所在的表名
func (r EntityRef) Table() string {
	switch r.Kind {
	case KindArticle:
		return "articles"
	case KindComment:
		return "comments"
	case KindUser:
		return "users"
	}
	return ""
}
