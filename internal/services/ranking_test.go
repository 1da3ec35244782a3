package services_test

import (
	"context"
	"testing"
	"time"

	"newsboard/internal/models"
	"newsboard/internal/services"
	"newsboard/internal/testutils"
	"newsboard/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setVotes(t *testing.T, conn *gorm.DB, article *models.Article, votes int) {
	t.Helper()
	require.NoError(t, conn.Model(article).UpdateColumn("vote_count", votes).Error)
	article.VoteCount = votes
}

func articleIDs(articles []models.Article) []uint {
	ids := make([]uint, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestTrendingWindow(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()
	now := time.Now()

	author := testutils.CreateTestUser(t, conn)
	category := testutils.CreateTestCategory(t, conn)

	old := testutils.CreateTestArticle(t, conn, author, category, now.Add(-25*time.Hour))
	setVotes(t, conn, old, 100)
	fresh := testutils.CreateTestArticle(t, conn, author, category, now.Add(-time.Hour))
	setVotes(t, conn, fresh, 5)
	fresher := testutils.CreateTestArticle(t, conn, author, category, now.Add(-10*time.Minute))
	setVotes(t, conn, fresher, 1)
	pending := testutils.CreateTestArticle(t, conn, author, category, now)
	require.NoError(t, conn.Model(pending).Update("status", models.StatusPending).Error)

	articles, err := svc.Ranking.Trending(ctx, now, 20)
	require.NoError(t, err)
	assert.Equal(t, []uint{fresh.ID, fresher.ID}, articleIDs(articles))
}

func TestRecomputeAndHot(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()
	now := time.Now()

	author := testutils.CreateTestUser(t, conn)
	category := testutils.CreateTestCategory(t, conn)

	a := testutils.CreateTestArticle(t, conn, author, category, now.Add(-2*time.Hour))
	setVotes(t, conn, a, 10)
	b := testutils.CreateTestArticle(t, conn, author, category, now.Add(-30*time.Hour))
	setVotes(t, conn, b, 10)
	zero := testutils.CreateTestArticle(t, conn, author, category, now)
	negative := testutils.CreateTestArticle(t, conn, author, category, now)
	setVotes(t, conn, negative, -3)

	count, err := svc.Ranking.RecomputeAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	var stored models.Article
	require.NoError(t, conn.First(&stored, a.ID).Error)
	assert.InDelta(t, utils.Hotness(10, stored.CreatedAt, now), stored.HotnessScore, 1e-9)

	hot, err := svc.Ranking.Hot(ctx, services.HotQuery{Limit: 10, PublishedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, articleIDs(hot))
	assert.NotContains(t, articleIDs(hot), zero.ID)

	score, err := svc.Ranking.RecomputeArticle(ctx, zero.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestHotLimitClamp(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()
	author := testutils.CreateTestUser(t, conn)
	category := testutils.CreateTestCategory(t, conn)
	for i := 0; i < 3; i++ {
		a := testutils.CreateTestArticle(t, conn, author, category, time.Time{})
		require.NoError(t, conn.Model(a).UpdateColumn("hotness_score", float64(i+1)).Error)
	}

	hot, err := svc.Ranking.Hot(ctx, services.HotQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, hot, 2)
	assert.GreaterOrEqual(t, hot[0].HotnessScore, hot[1].HotnessScore)

	hot, err = svc.Ranking.Hot(ctx, services.HotQuery{Limit: 0})
	require.NoError(t, err)
	assert.Len(t, hot, 3)
}

func TestFeedFromSubscriptionsAndFollows(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()

	reader := testutils.CreateTestUser(t, conn)
	followed := testutils.CreateTestUser(t, conn)
	stranger := testutils.CreateTestUser(t, conn)
	subscribed := testutils.CreateTestCategory(t, conn)
	elsewhere := testutils.CreateTestCategory(t, conn)

	require.NoError(t, svc.Categories.Subscribe(ctx, reader.ID, subscribed.ID))
	require.NoError(t, svc.Users.Follow(ctx, reader.ID, followed.ID))

	inCategory := testutils.CreateTestArticle(t, conn, stranger, subscribed, time.Now().Add(-2*time.Hour))
	byFollowed := testutils.CreateTestArticle(t, conn, followed, elsewhere, time.Now().Add(-time.Hour))
	testutils.CreateTestArticle(t, conn, stranger, elsewhere, time.Time{})

	articles, total, err := svc.Ranking.Feed(ctx, reader.ID, utils.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uint{byFollowed.ID, inCategory.ID}, articleIDs(articles))

	empty, total, err := svc.Ranking.Feed(ctx, stranger.ID, utils.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, empty)
}

func TestListArticlesFilters(t *testing.T) {
	svc, conn := newServices(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(t, conn)
	other := testutils.CreateTestUser(t, conn)
	category := testutils.CreateTestCategory(t, conn)

	older := testutils.CreateTestArticle(t, conn, author, category, time.Now().Add(-time.Hour))
	setVotes(t, conn, older, 7)
	newer := testutils.CreateTestArticle(t, conn, author, category, time.Time{})
	byOther := testutils.CreateTestArticle(t, conn, other, testutils.CreateTestCategory(t, conn), time.Time{})
	draft := testutils.CreateTestArticle(t, conn, author, category, time.Time{})
	require.NoError(t, conn.Model(draft).Update("status", models.StatusPending).Error)

	list, total, err := svc.Ranking.ListArticles(ctx, services.ArticleQuery{CategoryID: category.ID, Page: utils.NewPage(1, 20)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uint{newer.ID, older.ID}, articleIDs(list))

	list, _, err = svc.Ranking.ListArticles(ctx, services.ArticleQuery{Sort: services.SortVotes, Page: utils.NewPage(1, 1)})
	require.NoError(t, err)
	assert.Equal(t, []uint{older.ID}, articleIDs(list))

	list, total, err = svc.Ranking.ListArticles(ctx, services.ArticleQuery{UserID: author.ID, IncludeUnpublished: true, Page: utils.NewPage(1, 20)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.NotContains(t, articleIDs(list), byOther.ID)
}
