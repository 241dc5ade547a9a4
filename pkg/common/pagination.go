package common

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams are the page window requested by the client
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// ExtractPaginationParams reads page and page_size query parameters, applying
// defaults and the size ceiling.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Page: 1, PageSize: defaultPageSize}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}
	if size := r.URL.Query().Get("page_size"); size != "" {
		if s, err := strconv.Atoi(size); err == nil && s > 0 {
			if s > maxPageSize {
				s = maxPageSize
			}
			params.PageSize = s
		}
	}
	return params
}

// Offset returns the zero-based index of the first item on the page
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Slice returns the [from,to) bounds of the page within a list of total items
func (p PaginationParams) Slice(total int) (int, int) {
	from := p.Offset()
	if from > total {
		from = total
	}
	to := from + p.PageSize
	if to > total {
		to = total
	}
	return from, to
}

// PaginationInfo describes the returned page
type PaginationInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// BuildPaginationInfo computes page metadata for total items
func BuildPaginationInfo(params PaginationParams, total int) *PaginationInfo {
	totalPages := total / params.PageSize
	if total%params.PageSize > 0 {
		totalPages++
	}
	return &PaginationInfo{
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
