package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Depth())
	assert.Equal(t, "", p.String())

	p, err = ParsePath("3.17.42")
	require.NoError(t, err)
	assert.Equal(t, MaterializedPath{3, 17, 42}, p)
	assert.Equal(t, 3, p.Depth())
	assert.Equal(t, "3.17.42", p.String())

	for _, bad := range []string{".3", "3..4", "a.b", "0", "3."} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestPathChildDoesNotAlias(t *testing.T) {
	base := make(MaterializedPath, 2, 8)
	base[0], base[1] = 1, 2

	a := base.Child(10)
	b := base.Child(20)
	assert.Equal(t, MaterializedPath{1, 2, 10}, a)
	assert.Equal(t, MaterializedPath{1, 2, 20}, b)
	assert.Equal(t, MaterializedPath{1, 2}, base)

	root := MaterializedPath{}
	assert.Equal(t, MaterializedPath{7}, root.Child(7))
}

func TestPathHasPrefix(t *testing.T) {
	p := MaterializedPath{1, 12, 5}
	assert.True(t, p.HasPrefix(MaterializedPath{}))
	assert.True(t, p.HasPrefix(MaterializedPath{1, 12}))
	assert.True(t, p.HasPrefix(p))
	assert.False(t, p.HasPrefix(MaterializedPath{1, 1}))
	assert.False(t, p.HasPrefix(MaterializedPath{1, 12, 5, 9}))
}

func TestPathScanValue(t *testing.T) {
	var p MaterializedPath
	require.NoError(t, p.Scan([]byte("4.8")))
	assert.Equal(t, MaterializedPath{4, 8}, p)

	require.NoError(t, p.Scan(nil))
	assert.Empty(t, p)

	assert.Error(t, p.Scan(42))

	v, err := MaterializedPath{4, 8, 15}.Value()
	require.NoError(t, err)
	assert.Equal(t, "4.8.15", v)
}

func TestCommentSubtreePrefix(t *testing.T) {
	c := Comment{ID: 9, Path: MaterializedPath{2, 5}}
	assert.Equal(t, "2.5.9", c.SubtreePrefix().String())
	assert.Equal(t, MaterializedPath{2, 5}, c.Path)
}
