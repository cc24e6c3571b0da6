package pagination

import "strings"

// PageInfo carries opaque cursor pagination metadata in list responses.
type PageInfo struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Request captures cursor pagination input from a list call.
type Request struct {
	Cursor string
	Limit  int
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Normalize clamps the limit and trims the cursor.
func (r Request) Normalize() Request {
	r.Cursor = strings.TrimSpace(r.Cursor)
	if r.Limit <= 0 {
		r.Limit = defaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	return r
}
