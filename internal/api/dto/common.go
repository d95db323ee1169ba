package dto

import "github.com/spec-kit/helpdesk/internal/repository"

// ListResponse is the envelope of every paged list endpoint.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewListResponse converts a repository page with mapper.
func NewListResponse[S, T any](result repository.PageResult[S], mapper func(S) T) ListResponse[T] {
	items := make([]T, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, mapper(item))
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: result.TotalCount,
		Page:       result.Page.Number,
		PageSize:   result.Page.Size,
		TotalPages: result.TotalPages(),
	}
}

// SingleList wraps an unpaged slice in the list envelope.
func SingleList[S, T any](items []S, mapper func(S) T) ListResponse[T] {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, mapper(item))
	}
	return ListResponse[T]{
		Items:      out,
		TotalCount: len(out),
		Page:       1,
		PageSize:   len(out),
		TotalPages: 1,
	}
}

// PageQuery is the shared page/pageSize query string.
type PageQuery struct {
	Page     int `query:"page" validate:"omitempty,gte=1"`
	PageSize int `query:"pageSize" validate:"omitempty,gte=1,lte=100"`
}

// ToPage applies the defaults.
func (q PageQuery) ToPage() repository.Page {
	return repository.NewPage(q.Page, q.PageSize)
}
