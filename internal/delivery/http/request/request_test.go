package request

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArticleQueryDefaults(t *testing.T) {
	q, err := ParseArticleQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.False(t, q.All)
	assert.Empty(t, q.Search)
}

func TestParseArticleQuery(t *testing.T) {
	q, err := ParseArticleQuery(url.Values{
		"page":      {"3"},
		"page_size": {"50"},
		"search":    {"AI"},
		"all":       {"true"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 50, q.PageSize)
	assert.Equal(t, "AI", q.Search)
	assert.True(t, q.All)
}

func TestParseArticleQueryRejects(t *testing.T) {
	cases := map[string]url.Values{
		"page zero":       {"page": {"0"}},
		"page not int":    {"page": {"x"}},
		"page size big":   {"page_size": {"101"}},
		"page size zero":  {"page_size": {"0"}},
		"all not boolean": {"all": {"maybe"}},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseArticleQuery(values)
			assert.Error(t, err)
		})
	}
}

func TestParseMaxPagesAndLimit(t *testing.T) {
	n, err := ParseMaxPages(url.Values{})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = ParseMaxPages(url.Values{"max_pages": {"5"}})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = ParseMaxPages(url.Values{"max_pages": {"five"}})
	assert.Error(t, err)

	limit, err := ParseFailureLimit(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, DefaultFailures, limit)

	_, err = ParseFailureLimit(url.Values{"limit": {"501"}})
	assert.Error(t, err)
}
