// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

// timeLayout is the wire format for timestamps.
const timeLayout = time.RFC3339

// ListRequest contains the common listing query parameters.
type ListRequest struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// ToFilter converts the request to the domain filter. Services normalize
// pagination themselves.
func (r ListRequest) ToFilter() domain.ListFilter {
	return domain.ListFilter{
		Search:    r.Search,
		Status:    r.Status,
		SortBy:    r.SortBy,
		SortOrder: r.SortOrder,
		Limit:     r.Limit,
		Offset:    r.Offset,
	}
}

// ListResponse wraps offset-paginated results.
type ListResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
}

// CursorListResponse wraps cursor-paginated results.
type CursorListResponse struct {
	Items      any     `json:"items"`
	NextCursor *string `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// formatTime formats an optional timestamp for the wire.
func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

// ParseID parses a path or query identifier.
func ParseID(field, value string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid identifier").WithDetail("field", field)
	}
	return parsed, nil
}

// ParseOptionalID parses an identifier that may be absent.
func ParseOptionalID(field, value string) (*id.ID, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := ParseID(field, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
