package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Technology":         "technology",
		"Science & Research": "science-research",
		"  Café Déjà Vu  ":   "cafe-deja-vu",
		"Go 1.22 release!":   "go-1-22-release",
		"---":                "",
		"中文 分类":              "中文-分类",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}
