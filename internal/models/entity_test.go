package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEntityKind(t *testing.T) {
	k, ok := ParseEntityKind("Article")
	assert.True(t, ok)
	assert.Equal(t, KindArticle, k)

	k, ok = ParseEntityKind("comment")
	assert.True(t, ok)
	assert.Equal(t, KindComment, k)

	_, ok = ParseEntityKind("tag")
	assert.False(t, ok)
}

func TestEntityRef(t *testing.T) {
	assert.True(t, ArticleRef(1).Votable())
	assert.True(t, CommentRef(1).Votable())
	assert.False(t, UserRef(1).Votable())
	assert.Equal(t, "comments", CommentRef(3).Table())
	assert.Equal(t, "article:12", ArticleRef(12).String())
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusApproved))
	assert.True(t, CanTransition(StatusApproved, StatusPublished))
	assert.True(t, CanTransition(StatusPending, StatusPublished))
	assert.False(t, CanTransition(StatusPublished, StatusPending))
	assert.False(t, CanTransition(StatusApproved, StatusApproved))
	assert.False(t, CanTransition(StatusPending, "archived"))
	assert.False(t, ValidStatus("archived"))
}
