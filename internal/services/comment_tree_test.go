package services_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"newsboard/internal/apperr"
	"newsboard/internal/models"
	"newsboard/internal/testutils"
	"newsboard/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentPathAndDepth(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(t, conn)
	article := testutils.CreateTestArticle(t, conn, author, testutils.CreateTestCategory(t, conn), time.Time{})

	root, err := svc.Comments.Create(ctx, article.ID, author.ID, nil, "root comment")
	require.NoError(t, err)
	assert.Equal(t, "", root.Path.String())
	assert.Equal(t, 0, root.Depth)

	child, err := svc.Comments.Create(ctx, article.ID, author.ID, &root.ID, "child comment")
	require.NoError(t, err)
	assert.Equal(t, models.MaterializedPath{root.ID}.String(), child.Path.String())
	assert.Equal(t, 1, child.Depth)

	grandchild, err := svc.Comments.Create(ctx, article.ID, author.ID, &child.ID, "grandchild comment")
	require.NoError(t, err)
	assert.Equal(t, models.MaterializedPath{root.ID, child.ID}.String(), grandchild.Path.String())
	assert.Equal(t, 2, grandchild.Depth)

	found, err := svc.Articles.Find(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.CommentCount)

	// 评论 +1 karma
	total, err := svc.Karma.Total(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestCommentValidation(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(t, conn)
	category := testutils.CreateTestCategory(t, conn)
	article := testutils.CreateTestArticle(t, conn, author, category, time.Time{})
	other := testutils.CreateTestArticle(t, conn, author, category, time.Time{})

	_, err := svc.Comments.Create(ctx, article.ID, author.ID, nil, "   ")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Comments.Create(ctx, article.ID, author.ID, nil, strings.Repeat("a", models.MaxCommentLength+1))
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Comments.Create(ctx, 999999, author.ID, nil, "orphan")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	foreign := testutils.CreateTestComment(t, conn, other, author, nil)
	_, err = svc.Comments.Create(ctx, article.ID, author.ID, &foreign.ID, "wrong parent")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	missing := uint(999999)
	_, err = svc.Comments.Create(ctx, article.ID, author.ID, &missing, "missing parent")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSoftDeleteKeepsReplies(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(t, conn)
	article := testutils.CreateTestArticle(t, conn, author, testutils.CreateTestCategory(t, conn), time.Time{})

	root, err := svc.Comments.Create(ctx, article.ID, author.ID, nil, "root")
	require.NoError(t, err)
	child, err := svc.Comments.Create(ctx, article.ID, author.ID, &root.ID, "child")
	require.NoError(t, err)
	grandchild, err := svc.Comments.Create(ctx, article.ID, author.ID, &child.ID, "grandchild")
	require.NoError(t, err)

	require.NoError(t, svc.Comments.SoftDelete(ctx, child.ID))
	// 重复删除不报错
	require.NoError(t, svc.Comments.SoftDelete(ctx, child.ID))

	found, err := svc.Articles.Find(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.CommentCount)

	subtree, err := svc.Comments.Subtree(ctx, root.ID)
	require.NoError(t, err)
	ids := make([]uint, 0, len(subtree))
	for _, c := range subtree {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []uint{grandchild.ID}, ids)

	// 已删除评论的子树仍可查询
	subtree, err = svc.Comments.Subtree(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, subtree, 1)
	assert.Equal(t, grandchild.ID, subtree[0].ID)

	_, err = svc.Comments.Get(ctx, child.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = svc.Comments.Update(ctx, child.ID, "edited")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSubtreeDoesNotMatchSiblingPrefix(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(t, conn)
	article := testutils.CreateTestArticle(t, conn, author, testutils.CreateTestCategory(t, conn), time.Time{})

	// 插入足够多的根评论，使出现 id 为 1 和 1x 的情况
	var roots []*models.Comment
	for i := 0; i < 12; i++ {
		roots = append(roots, testutils.CreateTestComment(t, conn, article, author, nil))
	}
	first := roots[0]
	var sibling *models.Comment
	for _, r := range roots[1:] {
		if strings.HasPrefix(strconv.FormatUint(uint64(r.ID), 10), strconv.FormatUint(uint64(first.ID), 10)) {
			sibling = r
			break
		}
	}
	childOfFirst := testutils.CreateTestComment(t, conn, article, author, first)

	subtree, err := svc.Comments.Subtree(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, subtree, 1)
	assert.Equal(t, childOfFirst.ID, subtree[0].ID)

	if sibling != nil {
		testutils.CreateTestComment(t, conn, article, author, sibling)
		subtree, err = svc.Comments.Subtree(ctx, first.ID)
		require.NoError(t, err)
		assert.Len(t, subtree, 1)
	}
}

func TestListRootsWithReplies(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(t, conn)
	article := testutils.CreateTestArticle(t, conn, author, testutils.CreateTestCategory(t, conn), time.Time{})

	first, err := svc.Comments.Create(ctx, article.ID, author.ID, nil, "first **root**")
	require.NoError(t, err)
	_, err = svc.Comments.Create(ctx, article.ID, author.ID, nil, "second root")
	require.NoError(t, err)
	reply, err := svc.Comments.Create(ctx, article.ID, author.ID, &first.ID, "reply")
	require.NoError(t, err)
	deleted, err := svc.Comments.Create(ctx, article.ID, author.ID, &first.ID, "deleted reply")
	require.NoError(t, err)
	require.NoError(t, svc.Comments.SoftDelete(ctx, deleted.ID))

	roots, total, err := svc.Comments.ListRoots(ctx, article.ID, utils.NewPage(1, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, roots, 2)
	assert.Equal(t, first.ID, roots[0].ID)
	assert.Contains(t, roots[0].ContentHTML, "<strong>root</strong>")
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, reply.ID, roots[0].Replies[0].ID)
	assert.Equal(t, author.ID, roots[0].User.ID)

	_, _, err = svc.Comments.ListRoots(ctx, 999999, utils.NewPage(1, 50))
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	mine, total, err := svc.Comments.ListByUser(ctx, author.ID, utils.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, mine, 3)
}

func TestUpdateComment(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(t, conn)
	article := testutils.CreateTestArticle(t, conn, author, testutils.CreateTestCategory(t, conn), time.Time{})
	comment, err := svc.Comments.Create(ctx, article.ID, author.ID, nil, "before")
	require.NoError(t, err)

	updated, err := svc.Comments.Update(ctx, comment.ID, "  after  ")
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Content)

	got, err := svc.Comments.Get(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)
	assert.Equal(t, article.ID, got.Article.ID)
}
