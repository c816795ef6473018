package request

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/user/article-crawler/internal/entity"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultFailures = 50
	MaxFailures     = 500
)

// ParseArticleQuery reads page, page_size, search and all from the query string.
// page_size is ignored when all is set.
func ParseArticleQuery(values url.Values) (entity.ArticleQuery, error) {
	q := entity.ArticleQuery{
		Page:     1,
		PageSize: DefaultPageSize,
		Search:   values.Get("search"),
	}

	var err error
	if q.Page, err = intParam(values, "page", 1); err != nil {
		return q, err
	}
	if q.Page < 1 {
		return q, errors.New("page must be at least 1")
	}
	if q.PageSize, err = intParam(values, "page_size", DefaultPageSize); err != nil {
		return q, err
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return q, errors.New("page_size must be between 1 and 100")
	}
	if raw := values.Get("all"); raw != "" {
		if q.All, err = strconv.ParseBool(raw); err != nil {
			return q, errors.New("all must be a boolean")
		}
	}
	return q, nil
}

// ParseMaxPages reads max_pages. Zero means the parameter was absent.
func ParseMaxPages(values url.Values) (int, error) {
	return intParam(values, "max_pages", 0)
}

// ParseFailureLimit reads limit for the failed item listing.
func ParseFailureLimit(values url.Values) (int, error) {
	limit, err := intParam(values, "limit", DefaultFailures)
	if err != nil {
		return 0, err
	}
	if limit < 1 || limit > MaxFailures {
		return 0, errors.New("limit must be between 1 and 500")
	}
	return limit, nil
}

func intParam(values url.Values, name string, def int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}
