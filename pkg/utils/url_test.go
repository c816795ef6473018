package utils_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/article-crawler/pkg/utils"
)

func TestToAbsoluteURL(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://ost.51cto.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		relative string
		want     string
	}{
		{"protocol relative", "//cdn/x.jpg", "https://cdn/x.jpg"},
		{"root relative", "/x", "https://ost.51cto.com/x"},
		{"path relative", "x", "https://ost.51cto.com/x"},
		{"absolute", "http://other.example/a.png", "http://other.example/a.png"},
		{"padded", "  /posts/1 ", "https://ost.51cto.com/posts/1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := utils.ToAbsoluteURL(base, tt.relative)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArticleID(t *testing.T) {
	t.Parallel()

	id := utils.ArticleID("https://ost.51cto.com/posts/1")
	assert.Len(t, id, 16)
	assert.Equal(t, id, utils.ArticleID("https://ost.51cto.com/posts/1"))
	assert.NotEqual(t, id, utils.ArticleID("https://ost.51cto.com/posts/2"))
	assert.Equal(t, utils.HashURL("https://ost.51cto.com/posts/1")[:16], id)
}
