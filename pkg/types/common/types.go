// Package common defines transport-neutral types shared by casetrack's
// services, adapters and clients.
package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pagination limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination defines parameters for a paginated request.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize applies the default page size and clamps out-of-range values.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Validate rejects values Normalize would have to repair.
func (p Pagination) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
	}
	return nil
}

// Offset returns the index of the first item of the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Window returns the [start, end) bounds of the page within total items.
func (p Pagination) Window(total int) (start, end int) {
	start = min(p.Offset(), total)
	end = min(start+p.PageSize, total)
	return start, end
}

// PageResponse is a page of items with its position in the full result.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// Paginate slices items according to p (normalized first).
func Paginate[T any](items []T, p Pagination) PageResponse[T] {
	p = p.Normalize()
	start, end := p.Window(len(items))
	pages := (len(items) + p.PageSize - 1) / p.PageSize
	return PageResponse[T]{
		Items:      items[start:end],
		Total:      len(items),
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pages,
	}
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "asc", "desc" and "" (asc).
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return "", fmt.Errorf("invalid sort order %q", s)
}

// HealthStatus indicates the health of a component.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
)

// ComponentHealth is the probe result of one dependency.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  HealthStatus  `json:"status"`
	Latency time.Duration `json:"latency"`
	Message string        `json:"message,omitempty"`
}

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// GenerateID returns a UUID with an optional prefix.
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

//Personal.AI order the ending
