package shared

import (
	"net/url"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination carries the parsed page window for list queries.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page/limit query parameters, clamping limit to
// [1, 100] and page to at least 1.
func ParsePagination(query url.Values) Pagination {
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return Pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// PageResult wraps a page of records with its window metadata.
type PageResult[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPageResult assembles a PageResult, computing the page count.
func NewPageResult[T any](data []T, total int, p Pagination) PageResult[T] {
	pages := total / p.Limit
	if total%p.Limit != 0 {
		pages++
	}
	if data == nil {
		data = []T{}
	}
	return PageResult[T]{Data: data, Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}
