package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidHTTPURL(t *testing.T) {
	assert.True(t, ValidHTTPURL("https://example.com/a?b=c"))
	assert.True(t, ValidHTTPURL("http://localhost:8080"))
	assert.False(t, ValidHTTPURL("ftp://example.com"))
	assert.False(t, ValidHTTPURL("not a url"))
	assert.False(t, ValidHTTPURL("https://"))
	assert.False(t, ValidHTTPURL(""))
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "example.com", ExtractDomain("https://www.Example.com:443/path"))
	assert.Equal(t, "news.ycombinator.com", ExtractDomain("https://news.ycombinator.com/item?id=1"))
	assert.Equal(t, "", ExtractDomain("::bad"))
}
