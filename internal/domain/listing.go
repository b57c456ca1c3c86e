// Package domain provides shared business-layer types.
package domain

// ListFilter contains common filtering options for list operations.
// Resource-specific filters live on the per-service query types.
type ListFilter struct {
	// Search performs a substring match on searchable fields (name, code)
	Search string

	// Status filters by lifecycle status when non-empty
	Status string

	// SortBy names the column to order by; services whitelist the value
	SortBy string

	// SortOrder is "asc" or "desc"
	SortOrder string

	// Pagination
	Limit  int
	Offset int
}

// Normalize clamps pagination to [1, maxLimit], applying defaultLimit when
// the caller did not ask for one.
func (f *ListFilter) Normalize(defaultLimit, maxLimit int) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.SortOrder != "desc" {
		f.SortOrder = "asc"
	}
}

// ListResult contains offset-paginated results.
type ListResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// CursorResult contains cursor-paginated results.
type CursorResult[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}

// BulkResult reports the outcome of a partial-success batch operation.
type BulkResult struct {
	Updated int      `json:"updated"`
	Failed  []string `json:"failed"`
}
