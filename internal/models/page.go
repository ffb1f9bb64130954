package models

import "strings"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection recognises asc/desc case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Asc):
		return Asc, true
	case string(Desc):
		return Desc, true
	}
	return "", false
}

// SortOrder is one (property, direction) entry of a sort specification.
type SortOrder struct {
	Property  string    `json:"property"`
	Direction Direction `json:"direction"`
}

// PageRequest describes which slice of a result set to return.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Offset is the number of rows preceding the requested page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is a bounded slice of results plus the metadata needed to walk the rest.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewPage builds a page for req, computing the page count from total.
func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	return &Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    TotalPages(total, req.Size),
	}
}

// TotalPages returns ceil(total/size), or 1 when size is not positive.
func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// PageMetadata is the "page" object of the paged envelope.
type PageMetadata struct {
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// PagedModel is the JSON envelope returned by paged endpoints.
type PagedModel[T any] struct {
	Content []T          `json:"content"`
	Page    PageMetadata `json:"page"`
}

// NewPagedModel wraps p without altering its content or metadata.
func NewPagedModel[T any](p *Page[T]) PagedModel[T] {
	content := p.Content
	if content == nil {
		content = []T{}
	}
	return PagedModel[T]{
		Content: content,
		Page: PageMetadata{
			Size:          p.Size,
			Number:        p.Number,
			TotalElements: p.TotalElements,
			TotalPages:    p.TotalPages,
		},
	}
}
