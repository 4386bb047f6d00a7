package todo

import "strings"

// Status filters todos by completion state.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// SortField is a todo attribute results can be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination bounds. The limit is clamped server-side regardless of what the
// client asks for.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
)

// Query describes one listing request. OwnerID always comes from the
// authenticated session, never from client input.
type Query struct {
	OwnerID   string    `json:"owner_id"`
	Status    Status    `json:"status,omitempty"`
	Search    string    `json:"search,omitempty"`
	SortBy    SortField `json:"sort_by,omitempty"`
	SortOrder SortOrder `json:"sort_order,omitempty"`
	Page      int       `json:"page"`
	Limit     int       `json:"limit"`
}

// Normalize fills defaults and clamps pagination. Unknown enum values fall
// back to their defaults; callers that want to reject them validate first.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.Limit < 1:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}

	switch q.Status {
	case StatusActive, StatusCompleted:
	default:
		q.Status = StatusAll
	}

	switch q.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByTitle:
	default:
		q.SortBy = SortByCreatedAt
	}

	switch q.SortOrder {
	case SortAsc, SortDesc:
	default:
		q.SortOrder = SortDesc
	}

	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset returns the number of matching rows skipped before this page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// CompletedFilter returns the completion value to filter on, or nil for no filter.
func (q Query) CompletedFilter() *bool {
	var v bool
	switch q.Status {
	case StatusActive:
		v = false
	case StatusCompleted:
		v = true
	default:
		return nil
	}
	return &v
}

// Page is one slice of an owner's filtered and sorted todos.
type Page struct {
	Todos []Todo `json:"data"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// ParseStatus maps a status string to a Status. Empty input is StatusAll.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, true
	case StatusActive:
		return StatusActive, true
	case StatusCompleted:
		return StatusCompleted, true
	}
	return "", false
}

// ParseSortField maps a sortBy string to a SortField. Empty input is the default.
func ParseSortField(s string) (SortField, bool) {
	switch SortField(strings.TrimSpace(s)) {
	case "", SortByCreatedAt:
		return SortByCreatedAt, true
	case SortByUpdatedAt:
		return SortByUpdatedAt, true
	case SortByTitle:
		return SortByTitle, true
	}
	return "", false
}

// ParseSortOrder maps a sortOrder string to a SortOrder. Empty input is descending.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDesc:
		return SortDesc, true
	case SortAsc:
		return SortAsc, true
	}
	return "", false
}
